package insight

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactName is the insight artifact written into the target directory.
// Absence of the file is equivalent to "no insight" for any external reader.
const ArtifactName = "codebase_insight.json"

// SaveArtifact persists the insight as indented JSON via a temp file and
// rename, so a crashed run never leaves a half-written artifact behind.
func SaveArtifact(dir string, ins *CodebaseInsight) (string, error) {
	if ins == nil {
		return "", errors.New("insight: nil insight")
	}
	data, err := json.MarshalIndent(ins, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling insight: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, ArtifactName)
	tmp, err := os.CreateTemp(dir, ArtifactName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("replacing artifact: %w", err)
	}
	return path, nil
}

// LoadArtifact reads a previously persisted insight. A missing file returns
// (nil, nil): no insight, not an error.
func LoadArtifact(dir string) (*CodebaseInsight, error) {
	data, err := os.ReadFile(filepath.Join(dir, ArtifactName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading insight artifact: %w", err)
	}
	return ParseInsight(data)
}
