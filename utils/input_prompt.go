package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gryffinlabs/gryffin/constants/lipgloss"
)

// InputPrompt asks the user what to build and reads one line of input.
func InputPrompt(reader *bufio.Reader) (string, error) {

	fmt.Print(lipgloss.BlueSky.Render("what are we building today?: "))

	userInput, err := reader.ReadString('\n')
	if userInput == "" {
		return "", nil
	}

	if err != nil {
		if err == io.EOF {
			return strings.TrimSpace(userInput), nil
		}
		return "", fmt.Errorf("reading input: %w", err)
	}

	return strings.TrimSpace(userInput), nil
}
