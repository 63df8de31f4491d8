package diffmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/coderadar/internal/chunk"
)

func TestTranslateShiftsPastHunk(t *testing.T) {
	r := chunk.Range{StartLine: 100, EndLine: 120}
	hunks := []Hunk{{BaseStart: 10, BaseLen: 3, HeadStart: 10, HeadLen: 10}}
	got := Translate(r, hunks)
	assert.Equal(t, 107, got.StartLine)
	assert.Equal(t, 127, got.EndLine)
	assert.False(t, got.Relocalize)
}

func TestTranslateFlagsOverlap(t *testing.T) {
	r := chunk.Range{StartLine: 15, EndLine: 20}
	hunks := []Hunk{{BaseStart: 18, BaseLen: 4, HeadStart: 18, HeadLen: 1}}
	got := Translate(r, hunks)
	assert.Equal(t, 15, got.StartLine)
	assert.Equal(t, 20, got.EndLine)
	assert.True(t, got.Relocalize)
}

func TestTranslatePureInsertionShiftsRangeFullyAfterAnchor(t *testing.T) {
	r := chunk.Range{StartLine: 5, EndLine: 6}
	hunks := []Hunk{{BaseStart: 1, BaseLen: 0, HeadStart: 2, HeadLen: 3}}
	got := Translate(r, hunks)
	assert.Equal(t, 8, got.StartLine)
	assert.Equal(t, 9, got.EndLine)
	assert.False(t, got.Relocalize)
}

func TestTranslatePureInsertionLeavesRangeAtAnchorUntouched(t *testing.T) {
	r := chunk.Range{StartLine: 1, EndLine: 1}
	hunks := []Hunk{{BaseStart: 1, BaseLen: 0, HeadStart: 2, HeadLen: 3}}
	got := Translate(r, hunks)
	assert.Equal(t, 1, got.StartLine)
	assert.Equal(t, 1, got.EndLine)
	assert.False(t, got.Relocalize)
}

func TestTranslatePureInsertionLeavesStraddlingRangeUntouched(t *testing.T) {
	r := chunk.Range{StartLine: 1, EndLine: 2}
	hunks := []Hunk{{BaseStart: 1, BaseLen: 0, HeadStart: 2, HeadLen: 3}}
	got := Translate(r, hunks)
	assert.Equal(t, 1, got.StartLine)
	assert.Equal(t, 2, got.EndLine)
	assert.False(t, got.Relocalize)
}

func TestTranslateIdentityOnEmptyHunks(t *testing.T) {
	r := chunk.Range{StartLine: 5, EndLine: 9}
	got := Translate(r, nil)
	assert.Equal(t, r, got)
}

func TestParseUnifiedDiffMissingLengthDefaultsToOne(t *testing.T) {
	diff := "diff --git a/foo.go b/foo.go\n--- a/foo.go\n+++ b/foo.go\n@@ -5 +5 @@\n-old\n+new\n"
	diffs := ParseUnifiedDiff(diff)
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)
	assert.Equal(t, 1, diffs[0].Hunks[0].BaseLen)
	assert.Equal(t, 1, diffs[0].Hunks[0].HeadLen)
}

func TestParseUnifiedDiffDeletionWithoutHunks(t *testing.T) {
	diff := "diff --git a/gone.py b/gone.py\ndeleted file mode 100644\n--- a/gone.py\n+++ /dev/null\n"
	diffs := ParseUnifiedDiff(diff)
	require.Len(t, diffs, 1)
	assert.True(t, diffs[0].IsDeleted)
	assert.Equal(t, "gone.py", diffs[0].Path)
	assert.Empty(t, diffs[0].Hunks)
}

func TestParseUnifiedDiffSkipsEntryWithNoHunksOrDeletion(t *testing.T) {
	diff := "diff --git a/same.go b/same.go\nindex abc..def 100644\n"
	diffs := ParseUnifiedDiff(diff)
	assert.Empty(t, diffs)
}

func TestParseUnifiedDiffEmptyInputYieldsNothing(t *testing.T) {
	assert.Empty(t, ParseUnifiedDiff(""))
}
