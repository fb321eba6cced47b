package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

const previewLineLimit = 20

// RenderCodePreview prints a syntax-highlighted preview of a generated file,
// truncated so long files do not flood the terminal.
func RenderCodePreview(w io.Writer, path string, content string, theme string) error {
	lines := strings.Split(content, "\n")
	truncated := false
	if len(lines) > previewLineLimit {
		lines = lines[:previewLineLimit]
		truncated = true
	}

	language := languageForFile(path)
	if err := quick.Highlight(w, strings.Join(lines, "\n")+"\n", language, "terminal256", theme); err != nil {
		return err
	}
	if truncated {
		fmt.Fprintf(w, "... (%s truncated)\n", path)
	}
	return nil
}

func languageForFile(path string) string {
	lexer := lexers.Match(path)
	if lexer == nil {
		return "plaintext"
	}
	return lexer.Config().Name
}
