package compose

// Hunk is one contiguous change region inside one file's diff.
// Hunks are created once by the parser and never mutated; everything
// downstream refers to them by ID.
type Hunk struct {
	// ID is a stable, content-derived identifier: a hash of the owning
	// file path, the hunk header and the body lines. Re-parsing identical
	// diff text yields identical IDs.
	ID string

	// FilePath is the new path of the owning file.
	FilePath string

	// Header is the raw @@ -a,b +c,d @@ line, including any trailing
	// section context git appended after the second @@.
	Header string

	OldStart int
	OldLen   int
	NewStart int
	NewLen   int

	// Lines are the raw body lines, each prefixed with ' ', '+', '-'
	// or '\' (the "No newline at end of file" marker). The header line
	// is not included.
	Lines []string
}

// AddedLines counts the '+' lines in the hunk body.
func (h *Hunk) AddedLines() int {
	n := 0
	for _, ln := range h.Lines {
		if len(ln) > 0 && ln[0] == '+' {
			n++
		}
	}
	return n
}

// RemovedLines counts the '-' lines in the hunk body.
func (h *Hunk) RemovedLines() int {
	n := 0
	for _, ln := range h.Lines {
		if len(ln) > 0 && ln[0] == '-' {
			n++
		}
	}
	return n
}

// FileDiff holds all hunks belonging to one file's change.
type FileDiff struct {
	// OldPath and NewPath differ when the file was renamed or copied.
	OldPath string
	NewPath string

	// HeaderLines are the raw lines from 'diff --git' up to (but not
	// including) the first @@ header: mode lines, index line, ---/+++.
	HeaderLines []string

	Hunks []*Hunk

	// Binary files carry no hunks and are excluded from composition.
	Binary  bool
	New     bool
	Deleted bool
	Renamed bool
}

// Path returns the path composition should address the file by.
func (f *FileDiff) Path() string {
	return f.NewPath
}
