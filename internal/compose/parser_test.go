package compose

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/b.txt b/b.txt
index 0000000..1111111 100644
--- a/b.txt
+++ b/b.txt
@@ -1,3 +1,4 @@
 one
+two
 three
 four
@@ -10,2 +11,3 @@
 ten
+eleven
 twelve
diff --git a/a.txt b/a.txt
new file mode 100644
index 0000000..2222222
--- /dev/null
+++ b/a.txt
@@ -0,0 +1,2 @@
+hello
+world
diff --git a/img.png b/img.png
index 3333333..4444444 100644
Binary files a/img.png and b/img.png differ
`

func TestParseUnifiedDiff(t *testing.T) {
	files, warnings, err := ParseUnifiedDiff(sampleDiff)
	require.NoError(t, err)
	require.Len(t, files, 3)

	b := files[0]
	assert.Equal(t, "b.txt", b.NewPath)
	require.Len(t, b.Hunks, 2)
	assert.Equal(t, 1, b.Hunks[0].OldStart)
	assert.Equal(t, 3, b.Hunks[0].OldLen)
	assert.Equal(t, 1, b.Hunks[0].NewStart)
	assert.Equal(t, 4, b.Hunks[0].NewLen)
	assert.Equal(t, 1, b.Hunks[0].AddedLines())
	assert.Equal(t, 0, b.Hunks[0].RemovedLines())
	assert.Equal(t, 10, b.Hunks[1].OldStart)

	a := files[1]
	assert.True(t, a.New)
	require.Len(t, a.Hunks, 1)
	assert.Equal(t, 0, a.Hunks[0].OldLen)
	assert.Equal(t, 2, a.Hunks[0].NewLen)

	img := files[2]
	assert.True(t, img.Binary)
	assert.Empty(t, img.Hunks)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "binary file img.png")
}

func TestParseUnifiedDiffHunkIDs(t *testing.T) {
	files, _, err := ParseUnifiedDiff(sampleDiff)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, fd := range files {
		for _, h := range fd.Hunks {
			assert.Regexp(t, `^h[0-9a-f]{12}$`, h.ID)
			assert.False(t, seen[h.ID], "hunk ID %s repeated", h.ID)
			seen[h.ID] = true
		}
	}

	// Parsing the same input again yields the same identities.
	again, _, err := ParseUnifiedDiff(sampleDiff)
	require.NoError(t, err)
	for i, fd := range files {
		for j, h := range fd.Hunks {
			assert.Equal(t, h.ID, again[i].Hunks[j].ID)
		}
	}
}

func TestParseUnifiedDiffEmptyInput(t *testing.T) {
	files, warnings, err := ParseUnifiedDiff("")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Empty(t, warnings)

	files, _, err = ParseUnifiedDiff("\n  \n")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParseUnifiedDiffMalformedHunkHeader(t *testing.T) {
	diff := strings.Join([]string{
		"diff --git a/x.txt b/x.txt",
		"--- a/x.txt",
		"+++ b/x.txt",
		"@@ -bogus +header @@",
		" line",
	}, "\n")

	_, _, err := ParseUnifiedDiff(diff)
	require.Error(t, err)
	var mde *MalformedDiffError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, 4, mde.LineNo)
	assert.Contains(t, mde.Reason, "unparseable hunk header")
}

func TestParseUnifiedDiffTruncatedBody(t *testing.T) {
	diff := strings.Join([]string{
		"diff --git a/x.txt b/x.txt",
		"--- a/x.txt",
		"+++ b/x.txt",
		"@@ -1,3 +1,3 @@",
		" only one line",
	}, "\n")

	_, _, err := ParseUnifiedDiff(diff)
	require.Error(t, err)
	var mde *MalformedDiffError
	require.True(t, errors.As(err, &mde))
	assert.Contains(t, mde.Reason, "truncated hunk body")
}

func TestParseUnifiedDiffGarbageInBody(t *testing.T) {
	diff := strings.Join([]string{
		"diff --git a/x.txt b/x.txt",
		"--- a/x.txt",
		"+++ b/x.txt",
		"@@ -1,2 +1,2 @@",
		" fine",
		"not a diff line",
	}, "\n")

	_, _, err := ParseUnifiedDiff(diff)
	require.Error(t, err)
	var mde *MalformedDiffError
	require.True(t, errors.As(err, &mde))
	assert.Contains(t, mde.Reason, "unexpected line inside hunk body")
}

func TestParseUnifiedDiffRenameOnly(t *testing.T) {
	diff := strings.Join([]string{
		"diff --git a/old.go b/new.go",
		"similarity index 100%",
		"rename from old.go",
		"rename to new.go",
	}, "\n")

	files, warnings, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].Renamed)
	assert.Equal(t, "old.go", files[0].OldPath)
	assert.Equal(t, "new.go", files[0].NewPath)
	assert.Empty(t, files[0].Hunks)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "no text hunks in new.go")
}

func TestParseUnifiedDiffNoNewlineMarker(t *testing.T) {
	diff := strings.Join([]string{
		"diff --git a/x.txt b/x.txt",
		"--- a/x.txt",
		"+++ b/x.txt",
		"@@ -1 +1 @@",
		"-old",
		"+new",
		`\ No newline at end of file`,
	}, "\n")

	files, _, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Len(t, files[0].Hunks, 1)
	h := files[0].Hunks[0]
	require.Len(t, h.Lines, 3)
	assert.Equal(t, `\ No newline at end of file`, h.Lines[2])
	assert.Equal(t, 1, h.OldLen)
	assert.Equal(t, 1, h.NewLen)
}

func TestParseUnifiedDiffIgnoresPreamble(t *testing.T) {
	diff := " x.txt | 2 +-\n 1 file changed\n" + sampleDiff
	files, _, err := ParseUnifiedDiff(diff)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}
