package git

import (
	"context"
	"strconv"
	"strings"
)

// StatusCounts summarizes the working tree state.
type StatusCounts struct {
	Staged    int
	Unstaged  int
	Untracked int
}

// Dirty reports whether anything differs from HEAD.
func (s StatusCounts) Dirty() bool {
	return s.Staged+s.Unstaged+s.Untracked > 0
}

// Branch returns the current branch name, or a detached-HEAD marker.
func (r *Runner) Branch(ctx context.Context) (string, error) {
	branch, err := r.output(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "HEAD (detached)", nil
	}
	return branch, nil
}

// RecentSubjects returns the last n commit subjects, newest first. A
// repository with no commits yet yields an empty list, not an error.
func (r *Runner) RecentSubjects(ctx context.Context, n int) []string {
	out, err := r.output(ctx, "log", "-n", strconv.Itoa(n), "--pretty=%s")
	if err != nil || out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// StagedDiff returns the unified diff of the index against HEAD, the
// engine's sole input contract from version control.
func (r *Runner) StagedDiff(ctx context.Context) (string, error) {
	return r.run(ctx, "diff", "--cached", "--patch")
}

// UntrackedFiles lists files git does not track. They are never composed;
// callers surface them as a warning.
func (r *Runner) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := r.output(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Status collects working tree counts from porcelain status output.
func (r *Runner) Status(ctx context.Context) (StatusCounts, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return StatusCounts{}, err
	}
	return parseStatus(out), nil
}

// StagedFiles lists paths currently staged in the index.
func (r *Runner) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := r.output(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ResetIndex unstages everything, leaving the working tree untouched.
func (r *Runner) ResetIndex(ctx context.Context) error {
	_, err := r.run(ctx, "reset", "-q")
	return err
}

// ApplyCached applies a unified-diff fragment to the index only (a
// staging operation; the working tree is not modified).
func (r *Runner) ApplyCached(ctx context.Context, patch string) error {
	_, err := r.runWithStdin(ctx, patch, "apply", "--cached", "-")
	return err
}

// Commit creates a commit from the current index with the given message
// and returns the new commit hash.
func (r *Runner) Commit(ctx context.Context, message string) (string, error) {
	if _, err := r.runWithStdin(ctx, message, "commit", "-F", "-"); err != nil {
		return "", err
	}
	return r.Head(ctx)
}

// parseStatus tallies `git status --porcelain` lines. The first column
// is the index state, the second the working tree state.
func parseStatus(status string) StatusCounts {
	var counts StatusCounts
	for _, line := range strings.Split(status, "\n") {
		if len(line) < 2 {
			continue
		}
		index, workTree := line[0], line[1]

		if index == '?' && workTree == '?' {
			counts.Untracked++
			continue
		}
		if index != ' ' && index != '?' {
			counts.Staged++
		}
		if workTree != ' ' && workTree != '?' {
			counts.Unstaged++
		}
	}
	return counts
}
