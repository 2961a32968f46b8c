package compose

import (
	"fmt"
	"sort"
	"strings"
)

// Inventory is the complete, identifier-indexed catalogue of hunks for
// one compose run. It is built once from the staged diff and read-only
// afterwards.
type Inventory struct {
	// Files are ordered by new path ascending; hunks keep their order of
	// appearance. Repeated renders of the same inventory are therefore
	// byte-identical, which the cache key depends on.
	Files []*FileDiff

	byID map[string]*Hunk
	ids  []string

	// Warnings carries per-file exclusions (binary files, files with no
	// parseable hunks) so nothing is dropped silently.
	Warnings []string
}

// RenderOptions controls the LLM-facing inventory description.
type RenderOptions struct {
	// MaxBodyLines caps the change lines shown per hunk. The hunk ID and
	// header are never truncated; only the body preview is.
	MaxBodyLines int
}

// DefaultRenderOptions matches what the compose prompt uses.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{MaxBodyLines: 40}
}

// BuildInventory assembles parser output into an enumerable, indexed
// structure. Duplicate content-derived IDs (possible only when a diff
// repeats an identical hunk) are disambiguated deterministically by an
// occurrence suffix.
func BuildInventory(files []*FileDiff, warnings []string) *Inventory {
	inv := &Inventory{
		Files:    make([]*FileDiff, len(files)),
		byID:     make(map[string]*Hunk),
		Warnings: append([]string(nil), warnings...),
	}
	copy(inv.Files, files)
	sort.SliceStable(inv.Files, func(i, j int) bool {
		return inv.Files[i].NewPath < inv.Files[j].NewPath
	})

	for _, fd := range inv.Files {
		for _, h := range fd.Hunks {
			if _, taken := inv.byID[h.ID]; taken {
				n := 2
				for {
					candidate := fmt.Sprintf("%s-%d", h.ID, n)
					if _, dup := inv.byID[candidate]; !dup {
						h.ID = candidate
						break
					}
					n++
				}
			}
			inv.byID[h.ID] = h
			inv.ids = append(inv.ids, h.ID)
		}
	}
	return inv
}

// Lookup resolves a hunk identifier.
func (inv *Inventory) Lookup(id string) (*Hunk, bool) {
	h, ok := inv.byID[id]
	return h, ok
}

// IDs returns every hunk identifier in iteration order.
func (inv *Inventory) IDs() []string {
	out := make([]string, len(inv.ids))
	copy(out, inv.ids)
	return out
}

// Len is the total number of addressable hunks.
func (inv *Inventory) Len() int {
	return len(inv.ids)
}

// FileFor returns the FileDiff owning the given hunk.
func (inv *Inventory) FileFor(h *Hunk) *FileDiff {
	for _, fd := range inv.Files {
		if fd.NewPath == h.FilePath {
			return fd
		}
	}
	return nil
}

// Render produces the textual inventory description handed to the plan
// collaborator. Identity is never lossy: when a body preview is cut at
// the ceiling, the ID and header still appear in full.
func (inv *Inventory) Render(opts RenderOptions) string {
	if opts.MaxBodyLines <= 0 {
		opts.MaxBodyLines = DefaultRenderOptions().MaxBodyLines
	}

	var b strings.Builder
	b.WriteString("[HUNK INVENTORY]\n")

	for _, fd := range inv.Files {
		if fd.Binary {
			fmt.Fprintf(&b, "\nFile: %s\n  (binary, excluded)\n", fd.NewPath)
			continue
		}

		fmt.Fprintf(&b, "\nFile: %s\n", fd.NewPath)
		switch {
		case fd.New:
			b.WriteString("  (new file)\n")
		case fd.Deleted:
			b.WriteString("  (deleted file)\n")
		case fd.Renamed:
			fmt.Fprintf(&b, "  (renamed from %s)\n", fd.OldPath)
		}

		for _, h := range fd.Hunks {
			fmt.Fprintf(&b, "\n  Hunk %s:\n    %s\n", h.ID, h.Header)
			body := changedLines(h)
			shown := body
			if len(shown) > opts.MaxBodyLines {
				shown = shown[:opts.MaxBodyLines]
			}
			for _, ln := range shown {
				fmt.Fprintf(&b, "    %s\n", ln)
			}
			if len(body) > len(shown) {
				fmt.Fprintf(&b, "    ... (%d more lines)\n", len(body)-len(shown))
			}
		}
	}

	return b.String()
}

// changedLines filters a hunk body down to its added/removed lines; the
// surrounding context adds little for grouping decisions.
func changedLines(h *Hunk) []string {
	var out []string
	for _, ln := range h.Lines {
		if len(ln) > 0 && (ln[0] == '+' || ln[0] == '-') {
			out = append(out, ln)
		}
	}
	return out
}
