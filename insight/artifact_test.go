package insight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveArtifact_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ins := &CodebaseInsight{
		ProjectType:           "Flask API",
		ExistingApps:          []string{"api", "auth"},
		TechStack:             map[string]string{"backend": "Flask", "database": "PostgreSQL"},
		ExistingFunctionality: []string{"user login", "token refresh"},
		Gaps:                  []string{"no rate limiting"},
		Recommendations: Recommendations{
			HowToExtend:       "add blueprints",
			PatternsToFollow:  "blueprint per resource",
			IntegrationPoints: "app factory",
		},
	}

	path, err := SaveArtifact(dir, ins)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ArtifactName), path)

	reloaded, err := LoadArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, ins, reloaded)
}

func TestSaveArtifact_OverwritesPrior(t *testing.T) {
	dir := t.TempDir()
	first := &CodebaseInsight{ProjectType: "v1", TechStack: map[string]string{}}
	second := &CodebaseInsight{ProjectType: "v2", TechStack: map[string]string{}}

	_, err := SaveArtifact(dir, first)
	require.NoError(t, err)
	_, err = SaveArtifact(dir, second)
	require.NoError(t, err)

	reloaded, err := LoadArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, "v2", reloaded.ProjectType)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ArtifactName, entries[0].Name())
}

func TestLoadArtifact_MissingFileMeansNoInsight(t *testing.T) {
	reloaded, err := LoadArtifact(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, reloaded)
}

func TestSaveArtifact_NilInsight(t *testing.T) {
	_, err := SaveArtifact(t.TempDir(), nil)
	assert.Error(t, err)
}
