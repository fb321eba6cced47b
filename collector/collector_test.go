package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestCollect_AdmitsTextFilesInOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", []byte("package b\n"))
	writeFile(t, root, "a.go", []byte("package a\n"))
	writeFile(t, root, "sub/c.go", []byte("package c\n"))

	snapshot, err := Collect(root, Options{})
	require.NoError(t, err)

	var paths []string
	for _, f := range snapshot.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.go", "b.go", "sub/c.go"}, paths)
	assert.Equal(t, int64(30), snapshot.TotalBytes)
	assert.Equal(t, 0, snapshot.SkippedCount)
}

func TestCollect_Deterministic(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, root, fmt.Sprintf("dir%d/file%d.txt", i%4, i), []byte(strings.Repeat("x", i+1)))
	}

	first, err := Collect(root, Options{})
	require.NoError(t, err)
	second, err := Collect(root, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestCollect_SizeLimitInvariants(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", []byte("ok"))
	writeFile(t, root, "large.txt", []byte(strings.Repeat("x", 2048)))

	snapshot, err := Collect(root, Options{PerFileLimit: 1024, TotalLimit: 4096})
	require.NoError(t, err)

	require.Len(t, snapshot.Files, 1)
	assert.Equal(t, "small.txt", snapshot.Files[0].Path)
	assert.Equal(t, 1, snapshot.SkippedCount)
	for _, f := range snapshot.Files {
		assert.LessOrEqual(t, f.SizeBytes, int64(1024))
	}
	assert.LessOrEqual(t, snapshot.TotalBytes, int64(4096))
}

func TestCollect_TotalBudgetSkipsWholeFiles(t *testing.T) {
	root := t.TempDir()
	// 60 files of 1 KB against a 50 KB budget: the first 50 fit, the rest are
	// skipped whole, never truncated.
	for i := 0; i < 60; i++ {
		writeFile(t, root, fmt.Sprintf("f%02d.txt", i), []byte(strings.Repeat("a", 1024)))
	}

	snapshot, err := Collect(root, Options{PerFileLimit: 4096, TotalLimit: 50 * 1024})
	require.NoError(t, err)

	assert.Len(t, snapshot.Files, 50)
	assert.Equal(t, 10, snapshot.SkippedCount)
	assert.LessOrEqual(t, snapshot.TotalBytes, int64(50*1024))
	assert.Equal(t, "f00.txt", snapshot.Files[0].Path)
	assert.Equal(t, "f49.txt", snapshot.Files[49].Path)
	for _, f := range snapshot.Files {
		assert.Equal(t, int64(1024), f.SizeBytes)
	}
}

func TestCollect_SkipsBinaryAndDenylisted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", []byte(strings.Repeat("print('hi')\n", 85)))
	writeFile(t, root, "build/output.bin", append([]byte{0x00, 0x01, 0x02}, []byte(strings.Repeat("z", 64))...))
	writeFile(t, root, ".git/config", []byte("[core]\n"))

	snapshot, err := Collect(root, Options{})
	require.NoError(t, err)

	require.Len(t, snapshot.Files, 1)
	assert.Equal(t, "main.py", snapshot.Files[0].Path)
	assert.Equal(t, 2, snapshot.SkippedCount)
}

func TestCollect_NullByteSniff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.dat", append([]byte("looks like text until"), 0x00))

	snapshot, err := Collect(root, Options{})
	require.NoError(t, err)

	assert.True(t, snapshot.Empty())
	assert.Equal(t, 1, snapshot.SkippedCount)
}

func TestCollect_EmptyTree(t *testing.T) {
	snapshot, err := Collect(t.TempDir(), Options{})
	require.NoError(t, err)

	assert.True(t, snapshot.Empty())
	assert.Equal(t, int64(0), snapshot.TotalBytes)
	assert.Equal(t, 0, snapshot.SkippedCount)
}

func TestCollect_UnreadableRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestCollect_RootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", []byte("x"))

	_, err := Collect(filepath.Join(root, "file.txt"), Options{})
	assert.Error(t, err)
}

func TestCollect_NegativeLimitsRejected(t *testing.T) {
	_, err := Collect(t.TempDir(), Options{PerFileLimit: -1})
	assert.Error(t, err)
}

func TestCollect_GitignoreRules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", []byte("*.log\nsecrets/\n"))
	writeFile(t, root, "app.go", []byte("package app\n"))
	writeFile(t, root, "debug.log", []byte("noise\n"))
	writeFile(t, root, "secrets/key.txt", []byte("hunter2\n"))

	snapshot, err := Collect(root, Options{})
	require.NoError(t, err)

	var paths []string
	for _, f := range snapshot.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{".gitignore", "app.go"}, paths)
	assert.Equal(t, 2, snapshot.SkippedCount)
}

func TestCollect_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", []byte("package keep\n"))
	writeFile(t, root, "gen/proto/service.pb.go", []byte("package proto\n"))

	snapshot, err := Collect(root, Options{ExcludePatterns: []string{"**/*.pb.go"}})
	require.NoError(t, err)

	require.Len(t, snapshot.Files, 1)
	assert.Equal(t, "keep.go", snapshot.Files[0].Path)
	assert.Equal(t, 1, snapshot.SkippedCount)
}

func TestCollect_InvalidExcludePattern(t *testing.T) {
	_, err := Collect(t.TempDir(), Options{ExcludePatterns: []string{"[unclosed"}})
	require.Error(t, err)
	var perr *PatternError
	assert.ErrorAs(t, err, &perr)
}
