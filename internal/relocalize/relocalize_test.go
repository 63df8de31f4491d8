package relocalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactRelocateFindsSlice(t *testing.T) {
	src := []byte("aaa\nbbb\nfunc Target() {}\nccc\n")
	slice := []byte("func Target() {}")
	start, end, ok := ExactRelocate(slice, src)
	require.True(t, ok)
	assert.Equal(t, "func Target() {}", string(src[start:end]))
}

func TestExactRelocateMissingReturnsFalse(t *testing.T) {
	_, _, ok := ExactRelocate([]byte("nope"), []byte("something else"))
	assert.False(t, ok)
}

func TestFuzzyRelocateFindsShiftedWindow(t *testing.T) {
	slice := []byte("0123456789ABCDEF")
	src := append([]byte("PADDING-"), slice...)
	start, end, ok := FuzzyRelocate(slice, src)
	require.True(t, ok)
	assert.Equal(t, string(slice), string(src[start:end]))
}

func TestRelocateFallsBackToFuzzyThenFails(t *testing.T) {
	_, ok := Relocate([]byte("totally absent content block"), []byte("unrelated source"))
	assert.False(t, ok)
}
