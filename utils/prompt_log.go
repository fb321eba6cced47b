package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PromptFileName is the append-only prompt history kept in the target
// directory. Each line is "[timestamp] prompt".
const PromptFileName = "prompt.txt"

// PromptEntry records one captured prompt.
type PromptEntry struct {
	Prompt     string
	Timestamp  string
	PromptPath string
}

// AppendPrompt appends the prompt to the history file, creating the target
// directory when needed.
func AppendPrompt(targetDir string, prompt string) (*PromptEntry, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is empty")
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("creating target directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	promptPath := filepath.Join(targetDir, PromptFileName)

	f, err := os.OpenFile(promptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", PromptFileName, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", timestamp, prompt); err != nil {
		return nil, fmt.Errorf("appending to %s: %w", PromptFileName, err)
	}

	return &PromptEntry{Prompt: prompt, Timestamp: timestamp, PromptPath: promptPath}, nil
}

// LatestPrompt returns the prompt text of the last non-blank history line,
// or "" when the file is missing or empty.
func LatestPrompt(promptPath string) (string, error) {
	f, err := os.Open(promptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return extractPromptLine(last), nil
}

// extractPromptLine strips the leading "[timestamp]" marker when present.
func extractPromptLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if strings.HasPrefix(line, "[") {
		if idx := strings.Index(line, "]"); idx >= 0 {
			return strings.TrimSpace(line[idx+1:])
		}
	}
	return line
}
