package compose

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGit scripts the git collaborator: each Apply/Commit consults the
// failure maps, and every index mutation is recorded for assertions.
type fakeGit struct {
	head        string
	stagedDiff  string
	applyFails  map[int]error // by apply call number, 1-based
	commitFails map[int]error // by commit call number, 1-based

	applyCalls  []string
	commitMsgs  []string
	resetCalls  int
	stagedAfter bool // pretend files are staged after a successful apply
}

func newFakeGit(staged string) *fakeGit {
	return &fakeGit{
		head:        "feedface0000",
		stagedDiff:  staged,
		applyFails:  map[int]error{},
		commitFails: map[int]error{},
		stagedAfter: true,
	}
}

func (f *fakeGit) Head(ctx context.Context) (string, error)       { return f.head, nil }
func (f *fakeGit) StagedDiff(ctx context.Context) (string, error) { return f.stagedDiff, nil }

func (f *fakeGit) ResetIndex(ctx context.Context) error {
	f.resetCalls++
	return nil
}

func (f *fakeGit) ApplyCached(ctx context.Context, patch string) error {
	f.applyCalls = append(f.applyCalls, patch)
	if err := f.applyFails[len(f.applyCalls)]; err != nil {
		return err
	}
	return nil
}

func (f *fakeGit) StagedFiles(ctx context.Context) ([]string, error) {
	if f.stagedAfter {
		return []string{"some/file"}, nil
	}
	return nil, nil
}

func (f *fakeGit) Commit(ctx context.Context, message string) (string, error) {
	f.commitMsgs = append(f.commitMsgs, message)
	if err := f.commitFails[len(f.commitMsgs)]; err != nil {
		return "", err
	}
	return fmt.Sprintf("abc%09d", len(f.commitMsgs)), nil
}

func titleRenderer(c *PlannedCommit) string { return c.Title + "\n" }

func threeCommitFixture(t *testing.T) (*Plan, *Inventory) {
	t.Helper()
	inv := buildSampleInventory(t)
	ids := inv.IDs()
	require.Len(t, ids, 3)
	plan := &Plan{Commits: []PlannedCommit{
		{ID: "c1", Title: "first", Hunks: ids[0:1]},
		{ID: "c2", Title: "second", Hunks: ids[1:2]},
		{ID: "c3", Title: "third", Hunks: ids[2:3]},
	}}
	return plan, inv
}

func TestExecutorCreatesEveryCommit(t *testing.T) {
	plan, inv := threeCommitFixture(t)
	fg := newFakeGit(sampleDiff)

	exec := NewExecutor(fg)
	snap, err := exec.TakeSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feedface0000", snap.Head)
	assert.Equal(t, sampleDiff, snap.StagedPatch)

	out := exec.Execute(context.Background(), plan, inv, snap, titleRenderer)
	assert.True(t, out.Success())
	require.Len(t, out.Created, 3)
	assert.Equal(t, "c1", out.Created[0].PlanID)
	assert.Equal(t, []string{"first\n", "second\n", "third\n"}, fg.commitMsgs)
	assert.Empty(t, out.Remaining)

	// One reset up front, none afterwards: nothing failed.
	assert.Equal(t, 1, fg.resetCalls)
	assert.Len(t, fg.applyCalls, 3)
	assert.Empty(t, out.RecoveryHint(snap))
}

func TestExecutorStopsAtFirstFailureAndKeepsEarlierCommits(t *testing.T) {
	plan, inv := threeCommitFixture(t)
	fg := newFakeGit(sampleDiff)
	fg.applyFails[2] = errors.New("patch does not apply")

	exec := NewExecutor(fg)
	snap, err := exec.TakeSnapshot(context.Background())
	require.NoError(t, err)

	out := exec.Execute(context.Background(), plan, inv, snap, titleRenderer)
	assert.False(t, out.Success())
	assert.Equal(t, "c2", out.FailedID)

	var ae *ApplyError
	require.ErrorAs(t, out.Err, &ae)
	assert.Equal(t, "c2", ae.CommitID)

	// The first commit stays created; the failed one and everything after
	// it are reported as remaining.
	require.Len(t, out.Created, 1)
	assert.Equal(t, "c1", out.Created[0].PlanID)
	assert.Equal(t, []string{"c2", "c3"}, out.Remaining)

	// A commit was already created, so the original staged patch must NOT
	// be re-applied: it no longer matches the new HEAD.
	assert.True(t, out.IndexRestored)
	assert.Equal(t, 2, fg.resetCalls)
	assert.Len(t, fg.applyCalls, 2, "no snapshot re-apply after partial success")

	hint := out.RecoveryHint(snap)
	assert.Contains(t, hint, "git reset --soft feedface0000")
	assert.Contains(t, hint, "1 commit(s) were created")
}

func TestExecutorRestoresStagedPatchWhenNothingWasCommitted(t *testing.T) {
	plan, inv := threeCommitFixture(t)
	fg := newFakeGit(sampleDiff)
	fg.applyFails[1] = errors.New("corrupt patch")

	exec := NewExecutor(fg)
	snap, err := exec.TakeSnapshot(context.Background())
	require.NoError(t, err)

	out := exec.Execute(context.Background(), plan, inv, snap, titleRenderer)
	assert.False(t, out.Success())
	assert.Empty(t, out.Created)
	assert.Equal(t, []string{"c1", "c2", "c3"}, out.Remaining)
	assert.True(t, out.IndexRestored)

	// Zero commits made: the snapshot patch goes back onto the index, so
	// the run is a clean no-op for the user.
	require.Len(t, fg.applyCalls, 2)
	assert.Equal(t, sampleDiff, fg.applyCalls[1])
	assert.Empty(t, out.RecoveryHint(snap), "no commits means nothing to recover")
}

func TestExecutorFailsWhenPatchStagesNothing(t *testing.T) {
	plan, inv := threeCommitFixture(t)
	fg := newFakeGit(sampleDiff)
	fg.stagedAfter = false

	exec := NewExecutor(fg)
	snap, _ := exec.TakeSnapshot(context.Background())

	out := exec.Execute(context.Background(), plan, inv, snap, titleRenderer)
	assert.False(t, out.Success())
	assert.Equal(t, "c1", out.FailedID)
	assert.Contains(t, out.Err.Error(), "nothing staged")
	assert.Empty(t, fg.commitMsgs)
}

func TestExecutorCommitFailure(t *testing.T) {
	plan, inv := threeCommitFixture(t)
	fg := newFakeGit(sampleDiff)
	fg.commitFails[3] = errors.New("hook rejected")

	exec := NewExecutor(fg)
	snap, _ := exec.TakeSnapshot(context.Background())

	out := exec.Execute(context.Background(), plan, inv, snap, titleRenderer)
	assert.False(t, out.Success())
	assert.Equal(t, "c3", out.FailedID)

	var ce *CommitError
	require.ErrorAs(t, out.Err, &ce)
	assert.Equal(t, "c3", ce.CommitID)
	assert.Len(t, out.Created, 2)
	assert.Equal(t, []string{"c3"}, out.Remaining)
}
