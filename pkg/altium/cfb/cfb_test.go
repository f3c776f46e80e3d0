package cfb

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/diag"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Storage {
	root := New()
	root.CreateStream("FileHeader", []byte("|HEADER=test|"))
	lib := root.CreateStorage("Library")
	lib.CreateStream("Header", []byte{1, 0, 0, 0})
	lib.CreateStream("Data", bytes.Repeat([]byte{0xA5}, 5000))
	comp := root.CreateStorage("RES_0805")
	comp.CreateStream("Data", []byte{})
	comp.CreateStream("Parameters", bytes.Repeat([]byte("|K=V"), 200))
	for i := 0; i < 9; i++ {
		root.CreateStorage(fmt.Sprintf("COMP%d", i)).CreateStream("Data", []byte{byte(i)})
	}
	return root
}

func TestNavigation(t *testing.T) {
	root := sampleTree()

	st, ok := root.TryGetStream("Library/Data")
	require.True(t, ok)
	require.EqualValues(t, 5000, st.Size())

	_, ok = root.TryGetStream("library/header")
	require.True(t, ok, "lookups are case-insensitive")

	_, ok = root.TryGetStorage("Nope/Deeper")
	require.False(t, ok)

	data, err := root.GetStreamData("/RES_0805/Parameters")
	require.NoError(t, err)
	require.Len(t, data, 800)

	_, err = root.GetStreamData("Missing")
	require.ErrorIs(t, err, os.ErrNotExist)

	self, ok := root.TryGetStorage("")
	require.True(t, ok)
	require.Same(t, root, self)
}

func TestCreateReplacesAndDelete(t *testing.T) {
	root := New()
	root.CreateStream("A", []byte{1})
	root.CreateStream("a", []byte{2})
	require.Len(t, root.Streams(), 1)
	require.Equal(t, []byte{2}, root.Stream("A").Data())

	root.CreateStorage("S")
	root.Delete("s")
	root.Delete("A")
	require.Empty(t, root.Storages())
	require.Empty(t, root.Streams())
}

func TestWalkOrder(t *testing.T) {
	root := New()
	root.CreateStream("FileHeader", nil)
	root.CreateStorage("B").CreateStream("Data", nil)
	root.CreateStorage("A").CreateStream("Data", nil)

	var paths []string
	err := root.Walk(func(path string, _ *Stream) error {
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"FileHeader", "B/Data", "A/Data"}, paths)
}

func TestWriteReadRoundTrip(t *testing.T) {
	root := sampleTree()
	data, err := root.Bytes()
	require.NoError(t, err)
	require.Equal(t, signature, data[:8])
	require.Zero(t, len(data)%sectorSize)

	back, err := FromBytes(data)
	require.NoError(t, err)

	want := map[string][]byte{}
	root.Walk(func(path string, st *Stream) error {
		want[path] = st.Data()
		return nil
	})
	got := map[string][]byte{}
	back.Walk(func(path string, st *Stream) error {
		got[path] = st.Data()
		return nil
	})
	require.Equal(t, len(want), len(got))
	for path, w := range want {
		require.Truef(t, bytes.Equal(w, got[path]), "stream %s differs", path)
	}
}

func TestSaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.SchLib")
	require.NoError(t, sampleTree().Save(path))

	root, err := Open(path)
	require.NoError(t, err)
	_, ok := root.TryGetStream("COMP8/Data")
	require.True(t, ok)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := FromBytes([]byte("definitely not a compound file, just some text padding it out"))
	var cf *diag.CorruptFileError
	require.True(t, errors.As(err, &cf), "got %v", err)
}

func TestLongNamesRejected(t *testing.T) {
	root := New()
	root.CreateStorage(strings.Repeat("X", 32))
	_, err := root.Bytes()
	require.Error(t, err)
}

func TestCompareNames(t *testing.T) {
	require.Less(t, compareNames("Z", "AA"), 0, "shorter names sort first")
	require.Less(t, compareNames("abc", "ABD"), 0)
	require.Zero(t, compareNames("data", "DATA"))
}

func TestTreeHeight(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 7: 3, 8: 4} {
		require.Equalf(t, want, treeHeight(n), "treeHeight(%d)", n)
	}
}

func TestSectionKey(t *testing.T) {
	taken := map[string]bool{}
	key, mapped := SectionKey("SHORT", taken)
	require.Equal(t, "SHORT", key)
	require.False(t, mapped)

	long := strings.Repeat("A", 40)
	first, mapped := SectionKey(long, taken)
	require.True(t, mapped)
	require.Len(t, first, MaxNameLength)

	second, _ := SectionKey(long+"B", taken)
	require.NotEqual(t, first, second)
	require.LessOrEqual(t, len(second), MaxNameLength)

	key, mapped = SectionKey("A/B", taken)
	require.Equal(t, "A_B", key)
	require.True(t, mapped)
}
