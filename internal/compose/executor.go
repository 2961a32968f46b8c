package compose

import (
	"context"
	"fmt"
	"strings"
)

// Git is the version-control collaborator the executor drives. The
// concrete implementation shells out to git; tests substitute a fake.
type Git interface {
	// Head resolves the current HEAD commit hash.
	Head(ctx context.Context) (string, error)
	// StagedDiff returns the unified diff of the index against HEAD.
	StagedDiff(ctx context.Context) (string, error)
	// ResetIndex unstages everything, leaving the working tree alone.
	ResetIndex(ctx context.Context) error
	// ApplyCached applies a unified-diff fragment to the index only.
	ApplyCached(ctx context.Context, patch string) error
	// StagedFiles lists paths currently staged in the index.
	StagedFiles(ctx context.Context) ([]string, error)
	// Commit creates a commit from the current index and returns its hash.
	Commit(ctx context.Context, message string) (string, error)
}

// ApplyError is a failed index application for one planned commit.
type ApplyError struct {
	CommitID string
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply failed for commit %s: %v", e.CommitID, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// CommitError is a failed commit creation for one planned commit.
type CommitError struct {
	CommitID string
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed for %s: %v", e.CommitID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Snapshot captures the repository state needed for rollback, taken once
// immediately before execution begins. It is used at most once, to
// restore the index after a failed step; it never reverts commits that
// already became durable.
type Snapshot struct {
	Head        string
	StagedPatch string
}

// CreatedCommit records one durable commit produced by an execution run.
type CreatedCommit struct {
	PlanID string
	Hash   string
	Title  string
}

// Outcome reports exactly how far an execution got. A partial run is
// reported as such: commits already created stay created, and the caller
// gets a precise recovery point instead of a bare error.
type Outcome struct {
	Created  []CreatedCommit
	FailedID string
	// Remaining lists the plan IDs (including the failed one) that were
	// not turned into commits.
	Remaining []string
	// IndexRestored is set when the failing step's staging state was
	// rolled back to the snapshot.
	IndexRestored bool
	RestoreErr    error
	Err           error
}

// Success reports whether every planned commit was created.
func (o Outcome) Success() bool {
	return o.Err == nil && o.FailedID == ""
}

// RecoveryHint renders manual-recovery guidance for a partial run.
func (o Outcome) RecoveryHint(snapshot Snapshot) string {
	if o.Success() || len(o.Created) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d commit(s) were created and kept; %d remain unapplied.\n",
		len(o.Created), len(o.Remaining))
	fmt.Fprintf(&b, "To undo the created commits manually: git reset --soft %s", snapshot.Head)
	return b.String()
}

// MessageRenderer turns a planned commit into its final commit message.
type MessageRenderer func(c *PlannedCommit) string

// Executor applies a validated plan to the repository, strictly in plan
// order, one logical thread, no overlap: the git index is process-wide
// shared mutable state.
type Executor struct {
	git Git
}

// NewExecutor returns an executor driving the given git collaborator.
func NewExecutor(git Git) *Executor {
	return &Executor{git: git}
}

// TakeSnapshot captures HEAD and the staged patch before any mutation.
func (e *Executor) TakeSnapshot(ctx context.Context) (Snapshot, error) {
	head, err := e.git.Head(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot HEAD: %w", err)
	}
	staged, err := e.git.StagedDiff(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot staged diff: %w", err)
	}
	return Snapshot{Head: head, StagedPatch: staged}, nil
}

// Execute applies each planned commit in order: reconstruct its patch,
// apply it to the index, verify something was staged, then commit. On
// the first failure the in-flight index state is restored from the
// snapshot and execution stops; commits already created are reported,
// never unmade.
func (e *Executor) Execute(ctx context.Context, plan *Plan, inv *Inventory, snapshot Snapshot, render MessageRenderer) Outcome {
	var out Outcome

	// Start from a clean index so each patch stages exactly its own hunks.
	if err := e.git.ResetIndex(ctx); err != nil {
		out.Err = fmt.Errorf("reset index: %w", err)
		out.Remaining = planIDs(plan.Commits)
		return out
	}

	for i := range plan.Commits {
		c := &plan.Commits[i]

		patch, err := BuildCommitPatch(c, inv)
		if err != nil {
			return e.fail(ctx, out, plan, i, snapshot, err)
		}

		if err := e.git.ApplyCached(ctx, patch); err != nil {
			return e.fail(ctx, out, plan, i, snapshot, &ApplyError{CommitID: c.ID, Err: err})
		}

		staged, err := e.git.StagedFiles(ctx)
		if err == nil && len(staged) == 0 {
			err = fmt.Errorf("nothing staged after applying patch")
		}
		if err != nil {
			return e.fail(ctx, out, plan, i, snapshot, &ApplyError{CommitID: c.ID, Err: err})
		}

		hash, err := e.git.Commit(ctx, render(c))
		if err != nil {
			return e.fail(ctx, out, plan, i, snapshot, &CommitError{CommitID: c.ID, Err: err})
		}

		// The commit is durable from here on; it is never rolled back.
		out.Created = append(out.Created, CreatedCommit{PlanID: c.ID, Hash: hash, Title: c.Title})
	}

	return out
}

// fail restores the index from the snapshot and fills in the recovery
// point for the aborted run.
func (e *Executor) fail(ctx context.Context, out Outcome, plan *Plan, failedIdx int, snapshot Snapshot, cause error) Outcome {
	out.Err = cause
	out.FailedID = plan.Commits[failedIdx].ID
	out.Remaining = planIDs(plan.Commits[failedIdx:])

	if err := e.git.ResetIndex(ctx); err != nil {
		out.RestoreErr = fmt.Errorf("reset index during rollback: %w", err)
		return out
	}
	if snapshot.StagedPatch != "" && len(out.Created) == 0 {
		// Only a run that created no commits can faithfully restore the
		// original staged state; after a partial run the snapshot patch
		// no longer matches HEAD.
		if err := e.git.ApplyCached(ctx, snapshot.StagedPatch); err != nil {
			out.RestoreErr = fmt.Errorf("restore staged changes: %w", err)
			return out
		}
	}
	out.IndexRestored = true
	return out
}

func planIDs(commits []PlannedCommit) []string {
	ids := make([]string, len(commits))
	for i := range commits {
		ids[i] = commits[i].ID
	}
	return ids
}
