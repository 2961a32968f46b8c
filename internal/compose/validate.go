package compose

import (
	"fmt"
	"strings"
)

// ViolationKind classifies a plan-validity violation.
type ViolationKind string

const (
	// UnassignedHunk: an inventory hunk appears in no commit.
	UnassignedHunk ViolationKind = "UnassignedHunk"
	// DuplicateHunkAssignment: a hunk appears in more than one commit,
	// or twice within the same commit.
	DuplicateHunkAssignment ViolationKind = "DuplicateHunkAssignment"
	// UnknownHunkID: a commit references an identifier absent from the
	// inventory.
	UnknownHunkID ViolationKind = "UnknownHunkId"
	// EmptyCommit: the plan is empty, or a commit claims no hunks.
	EmptyCommit ViolationKind = "EmptyCommit"
	// TooManyCommits: the plan exceeds the commit-count ceiling. A
	// warning by default; an error only under strict enforcement.
	TooManyCommits ViolationKind = "TooManyCommits"
)

// Violation is one independently reportable validity problem.
type Violation struct {
	Kind     ViolationKind
	HunkID   string
	CommitID string
	// OtherCommitID names the second claimant for duplicate assignments.
	OtherCommitID string
	Message       string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// ValidateOptions tunes the commit-count ceiling policy.
type ValidateOptions struct {
	MaxCommits int
	// StrictMaxCommits promotes TooManyCommits from a warning to a
	// violation.
	StrictMaxCommits bool
}

// Result is the full outcome of one validation pass.
type Result struct {
	Violations []Violation
	// Warnings are advisory findings that do not invalidate the plan.
	Warnings []string
}

// OK reports whether the plan passed validation.
func (r Result) OK() bool {
	return len(r.Violations) == 0
}

// Validate checks a candidate plan against the inventory in one total
// pass: every violation is collected, never just the first. Plans come
// from an unreliable collaborator, and reporting one error at a time
// would force wasteful regeneration loops.
func Validate(plan *Plan, inv *Inventory, opts ValidateOptions) Result {
	var res Result

	if len(plan.Commits) == 0 {
		res.Violations = append(res.Violations, Violation{
			Kind:    EmptyCommit,
			Message: "plan contains no commits",
		})
		return res
	}

	if opts.MaxCommits > 0 && len(plan.Commits) > opts.MaxCommits {
		msg := fmt.Sprintf("plan has %d commits, ceiling is %d", len(plan.Commits), opts.MaxCommits)
		if opts.StrictMaxCommits {
			res.Violations = append(res.Violations, Violation{Kind: TooManyCommits, Message: msg})
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	}

	claimedBy := make(map[string]string, inv.Len())
	for _, c := range plan.Commits {
		if len(c.Hunks) == 0 {
			res.Violations = append(res.Violations, Violation{
				Kind:     EmptyCommit,
				CommitID: c.ID,
				Message:  fmt.Sprintf("commit %s claims no hunks", c.ID),
			})
			continue
		}
		for _, id := range c.Hunks {
			if _, known := inv.Lookup(id); !known {
				res.Violations = append(res.Violations, Violation{
					Kind:     UnknownHunkID,
					HunkID:   id,
					CommitID: c.ID,
					Message:  fmt.Sprintf("commit %s references unknown hunk %s", c.ID, id),
				})
				continue
			}
			if first, dup := claimedBy[id]; dup {
				res.Violations = append(res.Violations, Violation{
					Kind:          DuplicateHunkAssignment,
					HunkID:        id,
					CommitID:      first,
					OtherCommitID: c.ID,
					Message:       fmt.Sprintf("hunk %s assigned to both %s and %s", id, first, c.ID),
				})
				continue
			}
			claimedBy[id] = c.ID
		}
		if strings.TrimSpace(c.Title) == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("commit %s has no title", c.ID))
		}
	}

	for _, id := range inv.IDs() {
		if _, claimed := claimedBy[id]; !claimed {
			res.Violations = append(res.Violations, Violation{
				Kind:    UnassignedHunk,
				HunkID:  id,
				Message: fmt.Sprintf("hunk %s is not assigned to any commit", id),
			})
		}
	}

	return res
}
