package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MalformedDiffError reports unparseable diff input. Parsing is
// all-or-nothing: a single bad hunk aborts the whole run rather than
// silently dropping content.
type MalformedDiffError struct {
	LineNo int
	Line   string
	Reason string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff at line %d: %s (%q)", e.LineNo, e.Reason, e.Line)
}

var (
	fileHeaderRe = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)
	hunkHeaderRe = regexp.MustCompile(`^@@ -([0-9]+)(?:,([0-9]+))? \+([0-9]+)(?:,([0-9]+))? @@(.*)$`)
)

// ParseUnifiedDiff parses raw `git diff --patch` output into per-file
// hunk records. It is a pure function of its input: the same text always
// produces the same files, hunks and hunk IDs.
//
// Binary files are kept as FileDiff entries with Binary set and no hunks,
// and reported through the returned warnings. A hunk header that cannot
// be parsed, or a hunk body shorter than its header promises, returns a
// *MalformedDiffError.
func ParseUnifiedDiff(diff string) ([]*FileDiff, []string, error) {
	var files []*FileDiff
	var warnings []string

	if strings.TrimSpace(diff) == "" {
		return files, warnings, nil
	}

	lines := strings.Split(diff, "\n")
	// Drop the empty element a trailing newline leaves behind, so it is
	// never miscounted as a context line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(lines[i], "diff --git ") {
			// Preamble before the first file block (e.g. stat output).
			i++
			continue
		}
		fd, next, err := parseFileBlock(lines, i, &warnings)
		if err != nil {
			return nil, nil, err
		}
		if fd != nil {
			files = append(files, fd)
		}
		i = next
	}

	return files, warnings, nil
}

// parseFileBlock parses one file section starting at lines[start] and
// returns the index of the first line after it.
func parseFileBlock(lines []string, start int, warnings *[]string) (*FileDiff, int, error) {
	m := fileHeaderRe.FindStringSubmatch(lines[start])
	if m == nil {
		return nil, start + 1, &MalformedDiffError{
			LineNo: start + 1,
			Line:   lines[start],
			Reason: "unparseable file header",
		}
	}

	fd := &FileDiff{
		OldPath:     m[1],
		NewPath:     m[2],
		HeaderLines: []string{lines[start]},
	}

	i := start + 1
	for i < len(lines) && !strings.HasPrefix(lines[i], "@@") && !strings.HasPrefix(lines[i], "diff --git ") {
		ln := lines[i]
		fd.HeaderLines = append(fd.HeaderLines, ln)

		switch {
		case strings.HasPrefix(ln, "Binary files ") || strings.HasPrefix(ln, "GIT binary patch"):
			fd.Binary = true
		case strings.HasPrefix(ln, "new file mode"):
			fd.New = true
		case strings.HasPrefix(ln, "deleted file mode"):
			fd.Deleted = true
		case strings.HasPrefix(ln, "rename from "):
			fd.Renamed = true
			fd.OldPath = strings.TrimPrefix(ln, "rename from ")
		case strings.HasPrefix(ln, "rename to "):
			fd.Renamed = true
			fd.NewPath = strings.TrimPrefix(ln, "rename to ")
		case strings.HasPrefix(ln, "copy from "):
			fd.OldPath = strings.TrimPrefix(ln, "copy from ")
		case strings.HasPrefix(ln, "copy to "):
			fd.NewPath = strings.TrimPrefix(ln, "copy to ")
		}
		i++
	}

	if fd.Binary {
		// Skip the remainder of the block; binary payloads are never parsed.
		for i < len(lines) && !strings.HasPrefix(lines[i], "diff --git ") {
			i++
		}
		*warnings = append(*warnings, fmt.Sprintf("excluded: binary file %s", fd.NewPath))
		fd.Hunks = nil
		return fd, i, nil
	}

	for i < len(lines) && strings.HasPrefix(lines[i], "@@") {
		hunk, next, err := parseHunk(lines, i, fd.NewPath)
		if err != nil {
			return nil, i, err
		}
		fd.Hunks = append(fd.Hunks, hunk)
		i = next
	}

	if len(fd.Hunks) == 0 {
		// Mode-change or rename-only entries carry no composable content.
		*warnings = append(*warnings, fmt.Sprintf("excluded: no text hunks in %s (mode or rename only)", fd.NewPath))
	}

	return fd, i, nil
}

// parseHunk parses one hunk starting at the @@ header at lines[start].
func parseHunk(lines []string, start int, filePath string) (*Hunk, int, error) {
	header := lines[start]
	m := hunkHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return nil, start, &MalformedDiffError{
			LineNo: start + 1,
			Line:   header,
			Reason: "unparseable hunk header",
		}
	}

	oldStart := mustAtoi(m[1])
	oldLen := 1
	if m[2] != "" {
		oldLen = mustAtoi(m[2])
	}
	newStart := mustAtoi(m[3])
	newLen := 1
	if m[4] != "" {
		newLen = mustAtoi(m[4])
	}

	var body []string
	oldSeen, newSeen := 0, 0
	i := start + 1
	for i < len(lines) && (oldSeen < oldLen || newSeen < newLen) {
		ln := lines[i]
		switch {
		case ln == "" || strings.HasPrefix(ln, " "):
			// Some tools emit empty context lines with the leading
			// space stripped; tolerate both forms.
			oldSeen++
			newSeen++
		case strings.HasPrefix(ln, "+"):
			newSeen++
		case strings.HasPrefix(ln, "-"):
			oldSeen++
		case strings.HasPrefix(ln, `\`):
			// "\ No newline at end of file": annotation, counts for neither side.
		default:
			return nil, i, &MalformedDiffError{
				LineNo: i + 1,
				Line:   ln,
				Reason: "unexpected line inside hunk body",
			}
		}
		body = append(body, ln)
		i++
	}

	if oldSeen < oldLen || newSeen < newLen {
		return nil, i, &MalformedDiffError{
			LineNo: start + 1,
			Line:   header,
			Reason: fmt.Sprintf("truncated hunk body: header promises -%d/+%d lines, found %d/%d",
				oldLen, newLen, oldSeen, newSeen),
		}
	}

	// A trailing no-newline marker belongs to this hunk.
	for i < len(lines) && strings.HasPrefix(lines[i], `\`) {
		body = append(body, lines[i])
		i++
	}

	return &Hunk{
		ID:       hunkID(filePath, header, body),
		FilePath: filePath,
		Header:   header,
		OldStart: oldStart,
		OldLen:   oldLen,
		NewStart: newStart,
		NewLen:   newLen,
		Lines:    body,
	}, i, nil
}

// hunkID derives the stable hunk identifier from content, not position:
// an unrelated edit elsewhere in the file does not change this hunk's
// identity, which is what makes cached plans and --from-plan replay safe.
func hunkID(filePath, header string, body []string) string {
	h := sha256.New()
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(header))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(body, "\n")))
	return "h" + hex.EncodeToString(h.Sum(nil))[:12]
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
