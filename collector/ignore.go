package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// ignoredDirs are directory segments that are never worth reading: version
// control metadata, dependency caches, and build output.
var ignoredDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	".idea":         {},
	".vscode":       {},
	".cache":        {},
	".pytest_cache": {},
	".mypy_cache":   {},
	".next":         {},
	"__pycache__":   {},
	"node_modules":  {},
	"vendor":        {},
	"bower_components": {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"dist":          {},
	"build":         {},
	"target":        {},
	"out":           {},
	"bin":           {},
	"obj":           {},
}

// binaryExts short-circuits the null-byte sniff for well-known binary formats
// so their content is never read at all.
var binaryExts = map[string]struct{}{
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".o": {}, ".a": {},
	".class": {}, ".jar": {}, ".war": {}, ".pyc": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".rar": {}, ".7z": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".webp": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wav": {}, ".flac": {}, ".mkv": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".db": {}, ".sqlite": {}, ".bin": {},
}

// Matcher decides which paths the collector must not admit. It combines the
// built-in denylist, the target's .gitignore, and user-supplied glob patterns.
type Matcher struct {
	rootDir   string
	gitIgnore gitignore.GitIgnore
	patterns  []string
}

// NewMatcher builds a matcher for rootDir. A missing .gitignore is fine;
// invalid user globs are reported so a typo does not silently admit files.
func NewMatcher(rootDir string, patterns []string) (*Matcher, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p}
		}
	}
	return &Matcher{
		rootDir:   rootDir,
		gitIgnore: loadIgnoreFile(filepath.Join(rootDir, ".gitignore"), rootDir),
		patterns:  patterns,
	}, nil
}

// PatternError reports an invalid user-supplied exclude glob.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("collector: invalid exclude pattern %q", e.Pattern)
}

// SkipDir reports whether a directory (repo-relative, slash-separated) should
// be pruned from the walk entirely.
func (m *Matcher) SkipDir(rel string) bool {
	base := strings.ToLower(filepath.Base(rel))
	if _, ok := ignoredDirs[base]; ok {
		return true
	}
	if strings.HasPrefix(base, ".") && rel != "." {
		return true
	}
	if m.gitIgnore != nil {
		if match := m.gitIgnore.Relative(rel, true); match != nil && match.Ignore() {
			return true
		}
	}
	return m.matchesPattern(rel)
}

// SkipFile reports whether a file should be excluded before its content is
// read. Binary detection by extension happens here; the null-byte sniff runs
// later, after the read.
func (m *Matcher) SkipFile(rel string) bool {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") && base != ".gitignore" && base != ".env.example" {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if _, ok := ignoredDirs[strings.ToLower(part)]; ok {
			return true
		}
	}
	if m.gitIgnore != nil {
		if match := m.gitIgnore.Relative(rel, false); match != nil && match.Ignore() {
			return true
		}
	}
	return m.matchesPattern(rel)
}

// BinaryExt reports whether the file extension marks a known binary format.
func BinaryExt(rel string) bool {
	_, ok := binaryExts[strings.ToLower(filepath.Ext(rel))]
	return ok
}

func (m *Matcher) matchesPattern(rel string) bool {
	for _, p := range m.patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(p, filepath.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()
	return gitignore.New(f, baseDir, nil)
}
