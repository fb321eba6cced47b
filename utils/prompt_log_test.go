package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryLine = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z\] .+$`)

func TestAppendPrompt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")

	entry, err := AppendPrompt(dir, "  build a todo app  ")
	require.NoError(t, err)
	assert.Equal(t, "build a todo app", entry.Prompt)
	assert.Equal(t, filepath.Join(dir, PromptFileName), entry.PromptPath)

	_, err = AppendPrompt(dir, "add billing")
	require.NoError(t, err)

	data, err := os.ReadFile(entry.PromptPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Regexp(t, entryLine, line)
	}
	assert.Contains(t, lines[0], "build a todo app")
	assert.Contains(t, lines[1], "add billing")
}

func TestAppendPrompt_RejectsEmpty(t *testing.T) {
	_, err := AppendPrompt(t.TempDir(), "   ")
	require.Error(t, err)
}

func TestLatestPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PromptFileName)

	content := "[2026-08-29T10:00:00Z] build a todo app\n" +
		"\n" +
		"[2026-08-29T11:00:00Z] add billing\n" +
		"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	prompt, err := LatestPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "add billing", prompt)
}

func TestLatestPrompt_MissingFile(t *testing.T) {
	prompt, err := LatestPrompt(filepath.Join(t.TempDir(), PromptFileName))
	require.NoError(t, err)
	assert.Empty(t, prompt)
}

func TestLatestPrompt_UnstampedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PromptFileName)
	require.NoError(t, os.WriteFile(path, []byte("just a raw prompt\n"), 0644))

	prompt, err := LatestPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "just a raw prompt", prompt)
}

func TestExtractPromptLine(t *testing.T) {
	cases := map[string]string{
		"[2026-08-29T10:00:00Z] build it": "build it",
		"plain prompt":                    "plain prompt",
		"  [ts] padded  ":                 "padded",
		"[no close bracket":               "[no close bracket",
		"":                                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, extractPromptLine(in), in)
	}
}
