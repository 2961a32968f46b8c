package compose

import (
	"fmt"
	"strings"
)

// PatchReconstructionError reports a hunk subset that cannot be turned
// into an appliable patch. It aborts execution of the affected commit
// before any git state is touched.
type PatchReconstructionError struct {
	CommitID string
	FilePath string
	Reason   string
}

func (e *PatchReconstructionError) Error() string {
	msg := "patch reconstruction failed"
	if e.CommitID != "" {
		msg += " for commit " + e.CommitID
	}
	if e.FilePath != "" {
		msg += " in " + e.FilePath
	}
	return msg + ": " + e.Reason
}

// BuildCommitPatch reconstructs a standalone unified diff containing
// exactly the hunks a planned commit claims, grouped per file in
// inventory order. The result is appliable against the current working
// tree state, independent of every unselected hunk.
func BuildCommitPatch(c *PlannedCommit, inv *Inventory) (string, error) {
	selected := make(map[string]bool, len(c.Hunks))
	for _, id := range c.Hunks {
		if _, ok := inv.Lookup(id); !ok {
			return "", &PatchReconstructionError{
				CommitID: c.ID,
				Reason:   fmt.Sprintf("unknown hunk %s", id),
			}
		}
		selected[id] = true
	}
	if len(selected) == 0 {
		return "", &PatchReconstructionError{CommitID: c.ID, Reason: "no hunks selected"}
	}

	var b strings.Builder
	for _, fd := range inv.Files {
		var subset []*Hunk
		for _, h := range fd.Hunks {
			if selected[h.ID] {
				subset = append(subset, h)
			}
		}
		if len(subset) == 0 {
			continue
		}
		fragment, err := BuildFilePatch(fd, subset)
		if err != nil {
			if pe, ok := err.(*PatchReconstructionError); ok {
				pe.CommitID = c.ID
			}
			return "", err
		}
		b.WriteString(fragment)
	}

	if b.Len() == 0 {
		return "", &PatchReconstructionError{CommitID: c.ID, Reason: "selection produced no file fragments"}
	}
	return b.String(), nil
}

// BuildFilePatch emits a per-file patch fragment for an ordered subset
// of that file's hunks. Old-side positions are kept as parsed, because
// the patch applies against the unmodified file on disk; new-side
// positions are renumbered as if the unselected hunks did not exist.
// Subset hunks that touch after selection are merged into one region so
// git never sees colliding ranges.
func BuildFilePatch(fd *FileDiff, subset []*Hunk) (string, error) {
	if fd.Binary {
		return "", &PatchReconstructionError{FilePath: fd.NewPath, Reason: "binary file cannot be composed"}
	}
	if len(subset) == 0 {
		return "", &PatchReconstructionError{FilePath: fd.NewPath, Reason: "empty hunk subset"}
	}

	// Keep the hunks in their original order of appearance regardless of
	// how the plan listed them.
	order := make(map[string]int, len(fd.Hunks))
	for i, h := range fd.Hunks {
		order[h.ID] = i
	}
	ordered := make([]*Hunk, len(subset))
	copy(ordered, subset)
	for _, h := range ordered {
		if _, belongs := order[h.ID]; !belongs {
			return "", &PatchReconstructionError{
				FilePath: fd.NewPath,
				Reason:   fmt.Sprintf("hunk %s does not belong to this file", h.ID),
			}
		}
	}
	sortHunksBy(ordered, order)

	regions, err := mergeRegions(fd, ordered)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, ln := range fd.HeaderLines {
		b.WriteString(ln)
		b.WriteByte('\n')
	}

	delta := 0
	for _, r := range regions {
		oldLen, newLen := countRegion(r.lines)
		newStart := r.oldStart + delta
		switch {
		case oldLen == 0:
			// Zero-length old range: the start names the line the
			// insertion follows, the new range starts one past it.
			newStart++
		case newLen == 0:
			newStart--
		}

		if r.verbatim != "" && newStart == r.origNewStart && newLen == r.origNewLen {
			// Nothing moved: reuse the original header bytes so a
			// full-selection rebuild reproduces the input diff exactly.
			b.WriteString(r.verbatim)
		} else {
			b.WriteString(formatHunkHeader(r.oldStart, oldLen, newStart, newLen, r.tail))
		}
		b.WriteByte('\n')
		for _, ln := range r.lines {
			b.WriteString(ln)
			b.WriteByte('\n')
		}

		delta += newLen - oldLen
	}

	return b.String(), nil
}

// region is one contiguous output hunk, possibly merged from several
// adjacent input hunks.
type region struct {
	oldStart     int
	lines        []string
	tail         string // trailing section context from the first source header
	verbatim     string // original header line, usable when unmerged
	origNewStart int
	origNewLen   int
}

func mergeRegions(fd *FileDiff, ordered []*Hunk) ([]*region, error) {
	var regions []*region
	for _, h := range ordered {
		tail := headerTail(h.Header)
		if len(regions) > 0 {
			prev := regions[len(regions)-1]
			prevOldLen, _ := countRegion(prev.lines)
			prevEnd := prev.oldStart + prevOldLen
			if h.OldStart < prevEnd {
				return nil, &PatchReconstructionError{
					FilePath: fd.NewPath,
					Reason: fmt.Sprintf("hunks %s and %s overlap on the old file",
						headerRange(prev.oldStart, prevOldLen), headerRange(h.OldStart, h.OldLen)),
				}
			}
			if h.OldStart == prevEnd {
				// Touching ranges collapse into one region; two headers
				// with abutting ranges would not apply cleanly.
				prev.lines = append(prev.lines, h.Lines...)
				prev.verbatim = ""
				continue
			}
		}
		regions = append(regions, &region{
			oldStart:     h.OldStart,
			lines:        append([]string(nil), h.Lines...),
			tail:         tail,
			verbatim:     h.Header,
			origNewStart: h.NewStart,
			origNewLen:   h.NewLen,
		})
	}
	return regions, nil
}

// countRegion recomputes old/new line counts from the body, which stays
// authoritative after merging.
func countRegion(lines []string) (oldLen, newLen int) {
	for _, ln := range lines {
		switch {
		case ln == "" || strings.HasPrefix(ln, " "):
			oldLen++
			newLen++
		case strings.HasPrefix(ln, "+"):
			newLen++
		case strings.HasPrefix(ln, "-"):
			oldLen++
		}
	}
	return oldLen, newLen
}

func formatHunkHeader(oldStart, oldLen, newStart, newLen int, tail string) string {
	return fmt.Sprintf("@@ -%s +%s @@%s",
		headerRange(oldStart, oldLen), headerRange(newStart, newLen), tail)
}

// headerRange renders one side of a hunk range, omitting the length when
// it is 1, matching git's own output.
func headerRange(start, length int) string {
	if length == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, length)
}

// headerTail extracts the section context git appends after the closing @@.
func headerTail(header string) string {
	if m := hunkHeaderRe.FindStringSubmatch(header); m != nil {
		return m[5]
	}
	return ""
}

func sortHunksBy(hunks []*Hunk, order map[string]int) {
	// Insertion sort: subsets are small and the order map is total.
	for i := 1; i < len(hunks); i++ {
		for j := i; j > 0 && order[hunks[j].ID] < order[hunks[j-1].ID]; j-- {
			hunks[j], hunks[j-1] = hunks[j-1], hunks[j]
		}
	}
}
