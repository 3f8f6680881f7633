package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkSave(t *testing.T) {
	root := t.TempDir()
	sink := NewFileSink(root, "run-1")

	assert.Equal(t, filepath.Join(root, "run-1"), sink.Dir())
	assert.NoDirExists(t, sink.Dir())

	require.NoError(t, sink.Save("desktop.png", []byte("png:desktop")))
	require.NoError(t, sink.Save("mobile.png", []byte("png:mobile")))
	require.NoError(t, sink.Save("desktop.png", []byte("png:desktop-2")))

	data, err := os.ReadFile(sink.Path("desktop.png"))
	require.NoError(t, err)
	assert.Equal(t, "png:desktop-2", string(data))

	names, err := sink.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"desktop.png", "mobile.png"}, names)
}

func TestFileSinkListSkipsStagedWrites(t *testing.T) {
	sink := NewFileSink(t.TempDir(), "run-2")
	require.NoError(t, sink.Save("summary.md", []byte("# ok")))
	require.NoError(t, os.WriteFile(sink.Path(".summary.md.tmp-123"), []byte("partial"), 0644))

	names, err := sink.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"summary.md"}, names)
}

func TestFileSinkListEmpty(t *testing.T) {
	names, err := NewFileSink(t.TempDir(), "missing").List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileSinkRejectsEscapingNames(t *testing.T) {
	sink := NewFileSink(t.TempDir(), "run")

	for _, name := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`} {
		err := sink.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}
