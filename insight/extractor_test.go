package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gryffinlabs/gryffin/collector"
)

// fakeProvider returns a canned payload or error and records the prompts it
// was called with.
type fakeProvider struct {
	response   json.RawMessage
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateJSON(_ context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.response, f.err
}

var validInsightJSON = json.RawMessage(`{
	"project_type": "Go CLI",
	"existing_apps": ["cli"],
	"tech_stack": {"backend": "Go", "frameworks": ["cobra", "viper"]},
	"existing_functionality": ["argument parsing"],
	"gaps_and_opportunities": ["no tests"],
	"recommendations": {
		"how_to_extend": "add subcommands",
		"patterns_to_follow": "cobra command per feature",
		"integration_points": "cmd package"
	}
}`)

func snapshotOf(files ...collector.FileRecord) *collector.Snapshot {
	s := &collector.Snapshot{Files: files}
	for _, f := range files {
		s.TotalBytes += f.SizeBytes
	}
	return s
}

func record(path, content string) collector.FileRecord {
	return collector.FileRecord{Path: path, Content: content, SizeBytes: int64(len(content))}
}

func TestExtract_WellFormedResponse(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeProvider{response: validInsightJSON}
	extractor := NewExtractor(provider, dir)

	analysis := extractor.Extract(context.Background(), snapshotOf(record("main.go", "package main\n")))

	require.Equal(t, StatusAnalyzed, analysis.Status)
	require.True(t, analysis.HasInsight())
	assert.Equal(t, "Go CLI", analysis.Insight.ProjectType)
	assert.Equal(t, "cobra, viper", analysis.Insight.TechStack["frameworks"])

	// The persisted artifact round-trips into the same record.
	reloaded, err := LoadArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, analysis.Insight, reloaded)
}

func TestExtract_PayloadContainsSnapshotFiles(t *testing.T) {
	provider := &fakeProvider{response: validInsightJSON}
	extractor := NewExtractor(provider, "")

	extractor.Extract(context.Background(), snapshotOf(
		record("a.go", "package a\n"),
		record("b.go", "package b\n"),
	))

	require.Equal(t, 1, provider.calls)
	assert.Contains(t, provider.lastUser, "=== FILE: a.go ===")
	assert.Contains(t, provider.lastUser, "=== FILE: b.go ===")
	assert.Contains(t, provider.lastSystem, "project_type")
}

func TestExtract_EmptySnapshotSkips(t *testing.T) {
	provider := &fakeProvider{response: validInsightJSON}
	extractor := NewExtractor(provider, "")

	analysis := extractor.Extract(context.Background(), &collector.Snapshot{})

	assert.Equal(t, StatusSkipped, analysis.Status)
	assert.False(t, analysis.HasInsight())
	assert.NotEmpty(t, analysis.Reason)
	assert.Zero(t, provider.calls)
}

func TestSkippedCarriesReason(t *testing.T) {
	analysis := Skipped("no analyzable files found")

	assert.Equal(t, StatusSkipped, analysis.Status)
	assert.Equal(t, "no analyzable files found", analysis.Reason)
	assert.Nil(t, analysis.Insight)
}

func TestExtract_NoProviderDegrades(t *testing.T) {
	extractor := NewExtractor(nil, "")

	analysis := extractor.Extract(context.Background(), snapshotOf(record("main.go", "package main\n")))

	assert.Equal(t, StatusFailed, analysis.Status)
	assert.False(t, analysis.HasInsight())
}

func TestExtract_TransportErrorDegrades(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	extractor := NewExtractor(provider, t.TempDir())

	analysis := extractor.Extract(context.Background(), snapshotOf(record("main.go", "package main\n")))

	assert.Equal(t, StatusFailed, analysis.Status)
	assert.Contains(t, analysis.Reason, "analysis request failed")

	// No artifact on failure.
	reloaded, err := LoadArtifact(extractor.ArtifactDir)
	require.NoError(t, err)
	assert.Nil(t, reloaded)
}

func TestExtract_MissingRequiredFieldDegrades(t *testing.T) {
	provider := &fakeProvider{response: json.RawMessage(`{"tech_stack": {}}`)}
	extractor := NewExtractor(provider, "")

	analysis := extractor.Extract(context.Background(), snapshotOf(record("main.go", "package main\n")))

	assert.Equal(t, StatusFailed, analysis.Status)
	assert.Contains(t, analysis.Reason, "project_type")
}

func TestExtract_MalformedResponseDegrades(t *testing.T) {
	provider := &fakeProvider{response: json.RawMessage(`not json at all`)}
	extractor := NewExtractor(provider, "")

	analysis := extractor.Extract(context.Background(), snapshotOf(record("main.go", "package main\n")))

	assert.Equal(t, StatusFailed, analysis.Status)
}

func TestExtract_TruncationDropsLargestFirst(t *testing.T) {
	provider := &fakeProvider{response: validInsightJSON}
	extractor := NewExtractor(provider, "")

	small := record("small.txt", strings.Repeat("s", 100))
	medium := record("medium.txt", strings.Repeat("m", 500))
	large := record("large.txt", strings.Repeat("l", 2000))

	// Budget fits the fixed parts plus the two smaller files only.
	extractor.PayloadLimit = len(analysisSystemPrompt) + 256 + 1000

	extractor.Extract(context.Background(), snapshotOf(small, medium, large))

	assert.Contains(t, provider.lastUser, "=== FILE: small.txt ===")
	assert.Contains(t, provider.lastUser, "=== FILE: medium.txt ===")
	assert.NotContains(t, provider.lastUser, "=== FILE: large.txt ===")
	assert.Contains(t, provider.lastUser, "omitted to fit")
}

func TestBuildPayload_Deterministic(t *testing.T) {
	extractor := NewExtractor(nil, "")
	extractor.PayloadLimit = 2048

	files := []collector.FileRecord{
		record("a.txt", strings.Repeat("a", 900)),
		record("b.txt", strings.Repeat("b", 900)),
		record("c.txt", strings.Repeat("c", 900)),
	}
	first, droppedFirst := extractor.buildPayload(snapshotOf(files...))
	second, droppedSecond := extractor.buildPayload(snapshotOf(files...))

	assert.Equal(t, first, second)
	assert.Equal(t, droppedFirst, droppedSecond)
}

func TestBuildPayload_OversizedOutlineDropped(t *testing.T) {
	// Declaration-dense source makes the outline section larger than the
	// room the limit leaves for it.
	var src strings.Builder
	src.WriteString("package main\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&src, "func aVeryWideGeneratedFunctionName%02d() {}\n", i)
	}
	dense := record("main.go", src.String())
	small := record("notes.txt", strings.Repeat("n", 100))

	extractor := NewExtractor(nil, "")
	extractor.PayloadLimit = len(analysisSystemPrompt) + 256 + fileBlockLen(small) + 10

	payload, dropped := extractor.buildPayload(snapshotOf(dense, small))

	assert.NotContains(t, payload, "## PROJECT OUTLINE")
	assert.Contains(t, payload, "=== FILE: notes.txt ===")
	assert.NotContains(t, payload, "=== FILE: main.go ===")
	assert.Equal(t, 1, dropped)
	assert.LessOrEqual(t, len(analysisSystemPrompt)+len(payload), extractor.PayloadLimit)
}

func TestParseInsight_LenientOnOptionals(t *testing.T) {
	ins, err := ParseInsight(json.RawMessage(`{"project_type": "Library", "tech_stack": {}}`))
	require.NoError(t, err)

	assert.Equal(t, "Library", ins.ProjectType)
	assert.NotNil(t, ins.ExistingApps)
	assert.Empty(t, ins.ExistingApps)
	assert.NotNil(t, ins.ExistingFunctionality)
	assert.NotNil(t, ins.Gaps)
	assert.NotNil(t, ins.TechStack)
}

func TestParseInsight_StrictOnRequired(t *testing.T) {
	cases := map[string]string{
		"missing project_type": `{"tech_stack": {"backend": "Go"}}`,
		"blank project_type":   `{"project_type": "  ", "tech_stack": {}}`,
		"missing tech_stack":   `{"project_type": "Go CLI"}`,
		"not an object":        `[1, 2, 3]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInsight(json.RawMessage(payload))
			assert.Error(t, err)
		})
	}
}

func TestParseInsight_TechStackFlattening(t *testing.T) {
	ins, err := ParseInsight(json.RawMessage(`{
		"project_type": "Web App",
		"tech_stack": {
			"backend": "Django",
			"frontend": null,
			"dependencies": ["celery", "redis"]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Django", ins.TechStack["backend"])
	assert.Equal(t, "celery, redis", ins.TechStack["dependencies"])
	_, hasFrontend := ins.TechStack["frontend"]
	assert.False(t, hasFrontend)
}
