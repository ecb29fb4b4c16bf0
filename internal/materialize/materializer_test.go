package materialize

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/decompress/internal/entrytype"
)

var testModTime = time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC)

func newTestMaterializer(t *testing.T, opts ...Option) (*Materializer, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "out")
	m, err := New(root, append([]Option{WithUmask(0o022)}, opts...)...)
	require.NoError(t, err)
	return m, root
}

func skipWithoutSymlinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
}

func file(path, body string, mode fs.FileMode) Entry {
	return Entry{Path: path, Type: entrytype.TypeFile, Data: []byte(body), Mode: mode, ModTime: testModTime}
}

func TestMaterialize_File(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	entry := file("a/b/c.txt", "hello", 0o666)

	got, err := m.Materialize(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	dest := filepath.Join(root, "a", "b", "c.txt")
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, testModTime.Equal(info.ModTime()), "mtime = %v", info.ModTime())
	if runtime.GOOS != "windows" {
		assert.Equal(t, fs.FileMode(0o644), info.Mode().Perm())
	}
}

func TestMaterialize_OverwriteAppliesMode(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not preserved on windows")
	}

	m, root := newTestMaterializer(t)
	_, err := m.Materialize(context.Background(), file("x.sh", "old", 0o644))
	require.NoError(t, err)
	_, err = m.Materialize(context.Background(), file("x.sh", "new", 0o755))
	require.NoError(t, err)

	dest := filepath.Join(root, "x.sh")
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755), info.Mode().Perm())
}

func TestMaterialize_OverwriteReadOnlyFile(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not preserved on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	m, root := newTestMaterializer(t)
	_, err := m.Materialize(context.Background(), file("ro.txt", "old", 0o444))
	require.NoError(t, err)
	_, err = m.Materialize(context.Background(), file("ro.txt", "new", 0o444))
	require.NoError(t, err)

	dest := filepath.Join(root, "ro.txt")
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o444), info.Mode().Perm())
}

func TestMaterialize_Directory(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	_, err := m.Materialize(context.Background(), Entry{
		Path:    "x/y/",
		Type:    entrytype.TypeDirectory,
		Mode:    0o755,
		ModTime: testModTime,
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "x", "y"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, testModTime.Equal(info.ModTime()), "mtime = %v", info.ModTime())
}

func TestMaterialize_RejectsUnsafePaths(t *testing.T) {
	t.Parallel()

	paths := []string{
		"../escape.txt",
		"a/../../escape.txt",
		"/etc/escape.txt",
		"..",
		"a\\..\\..\\escape.txt",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			t.Parallel()

			m, root := newTestMaterializer(t)
			for _, typ := range []entrytype.Type{entrytype.TypeFile, entrytype.TypeDirectory, entrytype.TypeSymlink, entrytype.TypeLink} {
				_, err := m.Materialize(context.Background(), Entry{Path: p, Type: typ, Linkname: "target", Data: []byte("x")})
				assert.True(t, errors.Is(err, entrytype.ErrPathEscape), "%s: err = %v", typ, err)
			}
			assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escape.txt"))
		})
	}
}

func TestMaterialize_FileOntoSymlink(t *testing.T) {
	t.Parallel()
	skipWithoutSymlinks(t)

	m, root := newTestMaterializer(t)
	outside := filepath.Join(t.TempDir(), "victim")
	require.NoError(t, os.WriteFile(outside, []byte("original"), 0o600))

	_, err := m.Materialize(context.Background(), Entry{Path: "link", Type: entrytype.TypeSymlink, Linkname: outside})
	require.NoError(t, err)
	target, err := os.Readlink(filepath.Join(root, "link"))
	require.NoError(t, err)
	assert.Equal(t, outside, target)

	_, err = m.Materialize(context.Background(), file("link", "pwned", 0o644))
	assert.True(t, errors.Is(err, entrytype.ErrSymlinkWrite), "err = %v", err)

	content, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestMaterialize_HardLink(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	_, err := m.Materialize(context.Background(), file("dir/a.txt", "shared", 0o644))
	require.NoError(t, err)
	_, err = m.Materialize(context.Background(), Entry{Path: "other/b.txt", Type: entrytype.TypeLink, Linkname: "dir/a.txt"})
	require.NoError(t, err)

	a, err := os.Stat(filepath.Join(root, "dir", "a.txt"))
	require.NoError(t, err)
	b, err := os.Stat(filepath.Join(root, "other", "b.txt"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(a, b))
}

func TestMaterialize_HardLinkOutsideRoot(t *testing.T) {
	t.Parallel()

	outside := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))

	tests := []struct {
		name     string
		linkname string
	}{
		{"absolute", outside},
		{"dotdot", "../../secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, root := newTestMaterializer(t)
			_, err := m.Materialize(context.Background(), Entry{Path: "leak", Type: entrytype.TypeLink, Linkname: tt.linkname})
			assert.True(t, errors.Is(err, entrytype.ErrPathEscape), "err = %v", err)
			assert.NoFileExists(t, filepath.Join(root, "leak"))
		})
	}
}

func TestMaterialize_HardLinkThroughEscapingSymlink(t *testing.T) {
	t.Parallel()
	skipWithoutSymlinks(t)

	m, root := newTestMaterializer(t)
	outside := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))

	_, err := m.Materialize(context.Background(), Entry{Path: "alias", Type: entrytype.TypeSymlink, Linkname: outside})
	require.NoError(t, err)
	_, err = m.Materialize(context.Background(), Entry{Path: "leak", Type: entrytype.TypeLink, Linkname: "alias"})
	assert.True(t, errors.Is(err, entrytype.ErrPathEscape), "err = %v", err)
	assert.NoFileExists(t, filepath.Join(root, "leak"))
}

func TestMaterialize_ContextCanceled(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Materialize(ctx, file("a.txt", "x", 0o644))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(root, "a.txt"))
}

func TestProcessor_SymlinkThenWriteThroughIt(t *testing.T) {
	t.Parallel()
	skipWithoutSymlinks(t)

	outside := t.TempDir()
	symlink := Entry{Path: "evil", Type: entrytype.TypeSymlink, Linkname: outside}
	write := file("evil/pwned", "pwned", 0o644)

	orders := map[string][]Entry{
		"symlink first": {symlink, write},
		"write first":   {write, symlink},
	}
	for name, entries := range orders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, _ := newTestMaterializer(t)
			_, err := NewProcessor().Process(context.Background(), entries, m)
			assert.True(t, errors.Is(err, entrytype.ErrSymlinkWrite), "err = %v", err)
			assert.NoFileExists(t, filepath.Join(outside, "pwned"))
		})
	}
}

func TestProcessor_DirectoryThroughEscapingSymlink(t *testing.T) {
	t.Parallel()
	skipWithoutSymlinks(t)

	outside := t.TempDir()
	m, _ := newTestMaterializer(t)
	_, err := NewProcessor().Process(context.Background(), []Entry{
		{Path: "evil", Type: entrytype.TypeSymlink, Linkname: outside},
		{Path: "evil/sub/", Type: entrytype.TypeDirectory, ModTime: testModTime},
	}, m)
	assert.True(t, errors.Is(err, entrytype.ErrPathEscape), "err = %v", err)
	assert.NoDirExists(t, filepath.Join(outside, "sub"))
}

func TestProcessor_ResultsInInputOrder(t *testing.T) {
	t.Parallel()

	m, _ := newTestMaterializer(t)
	entries := []Entry{
		{Path: "b.txt", Type: entrytype.TypeLink, Linkname: "a.txt"},
		file("a.txt", "a", 0o644),
		{Path: "d/", Type: entrytype.TypeDirectory, ModTime: testModTime},
	}
	got, err := NewProcessor().Process(context.Background(), entries, m)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestProcessor_ConcurrentSharedAncestors(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	var entries []Entry
	for i := range 64 {
		entries = append(entries, file("deep/shared/tree/f"+strconv.Itoa(i)+".txt", strconv.Itoa(i), 0o644))
	}

	got, err := NewProcessor(WithWorkers(16)).Process(context.Background(), entries, m)
	require.NoError(t, err)
	assert.Len(t, got, 64)

	for i := range 64 {
		content, err := os.ReadFile(filepath.Join(root, "deep", "shared", "tree", "f"+strconv.Itoa(i)+".txt"))
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), string(content))
	}
}

func TestProcessor_RestoresDirectoryTimes(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	_, err := NewProcessor().Process(context.Background(), []Entry{
		{Path: "pkg/", Type: entrytype.TypeDirectory, ModTime: testModTime},
		file("pkg/a.txt", "a", 0o644),
		file("pkg/b.txt", "b", 0o644),
	}, m)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "pkg"))
	require.NoError(t, err)
	assert.True(t, testModTime.Equal(info.ModTime()), "mtime = %v", info.ModTime())
}

func TestProcessor_Idempotent(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	entries := []Entry{
		{Path: "pkg/", Type: entrytype.TypeDirectory, ModTime: testModTime},
		file("pkg/a.txt", "a", 0o644),
		{Path: "pkg/b.txt", Type: entrytype.TypeLink, Linkname: "pkg/a.txt"},
	}
	if runtime.GOOS != "windows" {
		entries = append(entries, Entry{Path: "pkg/c.txt", Type: entrytype.TypeSymlink, Linkname: "a.txt"})
	}

	for range 2 {
		_, err := NewProcessor().Process(context.Background(), entries, m)
		require.NoError(t, err)
	}

	content, err := os.ReadFile(filepath.Join(root, "pkg", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(content))
}

func TestProcessor_Empty(t *testing.T) {
	t.Parallel()

	m, root := newTestMaterializer(t)
	got, err := NewProcessor().Process(context.Background(), nil, m)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.DirExists(t, root)
}

func TestProcessor_WriteThroughInternalSymlink(t *testing.T) {
	t.Parallel()
	skipWithoutSymlinks(t)

	archives := map[string][]Entry{
		"declared target": {
			{Path: "lib", Type: entrytype.TypeSymlink, Linkname: "real"},
			{Path: "real/", Type: entrytype.TypeDirectory, ModTime: testModTime},
			file("lib/x", "x", 0o644),
		},
		"implied target": {
			{Path: "lib", Type: entrytype.TypeSymlink, Linkname: "real"},
			file("real/y", "y", 0o644),
			file("lib/x", "x", 0o644),
		},
		"nested target": {
			{Path: "lib", Type: entrytype.TypeSymlink, Linkname: "real/sub"},
			file("lib/x", "x", 0o644),
		},
	}
	for name, entries := range archives {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for range 20 {
				m, root := newTestMaterializer(t)
				_, err := NewProcessor(WithWorkers(4)).Process(context.Background(), entries, m)
				require.NoError(t, err)

				content, err := os.ReadFile(filepath.Join(root, "lib", "x"))
				require.NoError(t, err)
				assert.Equal(t, "x", string(content))
			}
		})
	}
}

func TestProcessor_HardLinkChain(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		file("f", "data", 0o644),
		{Path: "l1", Type: entrytype.TypeLink, Linkname: "f"},
		{Path: "l2", Type: entrytype.TypeLink, Linkname: "l1"},
		{Path: "l3", Type: entrytype.TypeLink, Linkname: "l2"},
	}
	for range 20 {
		m, root := newTestMaterializer(t)
		_, err := NewProcessor(WithWorkers(4)).Process(context.Background(), entries, m)
		require.NoError(t, err)

		source, err := os.Stat(filepath.Join(root, "f"))
		require.NoError(t, err)
		for _, name := range []string{"l1", "l2", "l3"} {
			info, err := os.Stat(filepath.Join(root, name))
			require.NoError(t, err)
			assert.True(t, os.SameFile(source, info), "%s is not linked to f", name)
		}
	}
}

func TestProcessor_WorkerCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		workers int
		n       int
		want    int
	}{
		{"serial", -1, 10, 1},
		{"single entry", 8, 1, 1},
		{"fixed", 4, 10, 4},
		{"capped by entries", 8, 3, 3},
		{"auto", 0, 1 << 20, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(WithWorkers(tt.workers))
			assert.Equal(t, tt.want, p.workerCount(tt.n))
		})
	}
}

func TestProcessor_Progress(t *testing.T) {
	t.Parallel()

	m, _ := newTestMaterializer(t)
	entries := []Entry{
		{Path: "d/", Type: entrytype.TypeDirectory, ModTime: testModTime},
		file("d/a.txt", "aaa", 0o644),
		file("d/b.txt", "bb", 0o644),
	}

	var (
		mu     sync.Mutex
		events []entrytype.ProgressEvent
	)
	_, err := NewProcessor(WithWorkers(2), WithProgress(func(ev entrytype.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})).Process(context.Background(), entries, m)
	require.NoError(t, err)

	require.Len(t, events, 3)
	var maxDone int
	var maxBytes uint64
	for _, ev := range events {
		assert.Equal(t, entrytype.StageExtracting, ev.Stage)
		assert.Equal(t, 3, ev.EntriesTotal)
		assert.Equal(t, uint64(5), ev.BytesTotal)
		maxDone = max(maxDone, ev.EntriesDone)
		maxBytes = max(maxBytes, ev.BytesDone)
	}
	assert.Equal(t, 3, maxDone)
	assert.Equal(t, uint64(5), maxBytes)
}
