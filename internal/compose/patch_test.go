package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renumberDiff has three hunks with a net size change in each, so
// dropping any earlier hunk shifts every later new-side position.
const renumberDiff = `diff --git a/m.txt b/m.txt
index 1111111..2222222 100644
--- a/m.txt
+++ b/m.txt
@@ -1,2 +1,3 @@
 top
+added
 second
@@ -10,0 +12,2 @@
+ins1
+ins2
@@ -20,2 +23 @@
 keep
-drop
`

func parseSingleFile(t *testing.T, diff string) *FileDiff {
	t.Helper()
	files, _, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	return files[0]
}

func TestBuildFilePatchFullSelectionRoundTrip(t *testing.T) {
	fd := parseSingleFile(t, renumberDiff)
	require.Len(t, fd.Hunks, 3)

	out, err := BuildFilePatch(fd, fd.Hunks)
	require.NoError(t, err)
	assert.Equal(t, renumberDiff, out)
}

func TestBuildFilePatchRenumbersAfterOmittedHunks(t *testing.T) {
	fd := parseSingleFile(t, renumberDiff)

	// Only the insertion: the +1 from the first hunk disappears.
	out, err := BuildFilePatch(fd, []*Hunk{fd.Hunks[1]})
	require.NoError(t, err)
	assert.Contains(t, out, "@@ -10,0 +11,2 @@\n")
	assert.NotContains(t, out, "+12,2")

	// Only the deletion: both earlier hunks' shifts disappear.
	out, err = BuildFilePatch(fd, []*Hunk{fd.Hunks[2]})
	require.NoError(t, err)
	assert.Contains(t, out, "@@ -20,2 +20 @@\n")

	// Insertion plus deletion: the deletion shifts by the insertion's +2.
	out, err = BuildFilePatch(fd, []*Hunk{fd.Hunks[1], fd.Hunks[2]})
	require.NoError(t, err)
	assert.Contains(t, out, "@@ -10,0 +11,2 @@\n")
	assert.Contains(t, out, "@@ -20,2 +22 @@\n")
}

func TestBuildFilePatchOrdersSubsetByAppearance(t *testing.T) {
	fd := parseSingleFile(t, renumberDiff)

	// Plan order is reversed; output order must follow the file.
	out, err := BuildFilePatch(fd, []*Hunk{fd.Hunks[2], fd.Hunks[0]})
	require.NoError(t, err)
	first := strings.Index(out, "@@ -1,2 +1,3 @@")
	second := strings.Index(out, "@@ -20,2 +21 @@")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestBuildFilePatchMergesTouchingHunks(t *testing.T) {
	diff := `diff --git a/g.txt b/g.txt
index 1111111..2222222 100644
--- a/g.txt
+++ b/g.txt
@@ -1,3 +1,3 @@
 a
-b
+B
 c
@@ -4,3 +4,3 @@
 d
-e
+E
 f
`
	fd := parseSingleFile(t, diff)
	out, err := BuildFilePatch(fd, fd.Hunks)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "@@"), "touching hunks must collapse into one region: %s", out)
	assert.Contains(t, out, "@@ -1,6 +1,6 @@\n a\n-b\n+B\n c\n d\n-e\n+E\n f\n")
}

func TestBuildFilePatchRejectsOverlap(t *testing.T) {
	h1 := &Hunk{ID: "h111111111111", FilePath: "x.txt", Header: "@@ -1,3 +1,3 @@",
		OldStart: 1, OldLen: 3, NewStart: 1, NewLen: 3, Lines: []string{" a", "-b", "+B", " c"}}
	h2 := &Hunk{ID: "h222222222222", FilePath: "x.txt", Header: "@@ -3,2 +3,2 @@",
		OldStart: 3, OldLen: 2, NewStart: 3, NewLen: 2, Lines: []string{"-c", "+C", " d"}}
	fd := &FileDiff{
		OldPath:     "x.txt",
		NewPath:     "x.txt",
		HeaderLines: []string{"diff --git a/x.txt b/x.txt", "--- a/x.txt", "+++ b/x.txt"},
		Hunks:       []*Hunk{h1, h2},
	}

	_, err := BuildFilePatch(fd, fd.Hunks)
	require.Error(t, err)
	var pre *PatchReconstructionError
	require.ErrorAs(t, err, &pre)
	assert.Contains(t, pre.Reason, "overlap")
}

func TestBuildFilePatchRejectsBadSubsets(t *testing.T) {
	fd := parseSingleFile(t, renumberDiff)

	_, err := BuildFilePatch(fd, nil)
	require.Error(t, err)

	foreign := &Hunk{ID: "hffffffffffff", FilePath: "other.txt"}
	_, err = BuildFilePatch(fd, []*Hunk{foreign})
	require.Error(t, err)
	var pre *PatchReconstructionError
	require.ErrorAs(t, err, &pre)
	assert.Contains(t, pre.Reason, "does not belong")

	_, err = BuildFilePatch(&FileDiff{NewPath: "img.png", Binary: true}, []*Hunk{foreign})
	require.Error(t, err)
}

func TestBuildCommitPatchGroupsByFile(t *testing.T) {
	inv := buildSampleInventory(t)
	ids := inv.IDs()

	c := &PlannedCommit{ID: "c1", Title: "all of it", Hunks: ids}
	patch, err := BuildCommitPatch(c, inv)
	require.NoError(t, err)

	// One file block per non-binary file, in inventory (path) order.
	aIdx := strings.Index(patch, "diff --git a/a.txt b/a.txt")
	bIdx := strings.Index(patch, "diff --git a/b.txt b/b.txt")
	require.GreaterOrEqual(t, aIdx, 0)
	require.GreaterOrEqual(t, bIdx, 0)
	assert.Less(t, aIdx, bIdx)
	assert.NotContains(t, patch, "img.png")
}

func TestBuildCommitPatchUnknownHunk(t *testing.T) {
	inv := buildSampleInventory(t)

	c := &PlannedCommit{ID: "c1", Hunks: []string{"hnotreal00000"}}
	_, err := BuildCommitPatch(c, inv)
	require.Error(t, err)
	var pre *PatchReconstructionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "c1", pre.CommitID)

	c = &PlannedCommit{ID: "c2"}
	_, err = BuildCommitPatch(c, inv)
	require.Error(t, err)
}
