package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
)

const defaultTimeout = 30 * time.Second

// GitError wraps a failed git invocation with the command line and its
// stderr, so failure payloads reach the caller unmangled.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Err }

// Runner executes git against one repository. Read-only repository
// metadata (discovery, HEAD) goes through go-git; index and commit
// operations shell out to the git binary, whose apply machinery is the
// reference implementation for patch application.
type Runner struct {
	root    string
	repo    *gogit.Repository
	timeout time.Duration
}

// Discover locates the repository containing path (walking up like git
// itself does) and returns a runner rooted at its working tree.
func Discover(path string) (*Runner, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not in a git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no working tree: %w", err)
	}
	return &Runner{
		root:    wt.Filesystem.Root(),
		repo:    repo,
		timeout: defaultTimeout,
	}, nil
}

// Root returns the working tree root.
func (r *Runner) Root() string {
	return r.root
}

// Head resolves the current HEAD commit hash.
func (r *Runner) Head(ctx context.Context) (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// run executes git with the given arguments and returns raw stdout.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	return r.runWithStdin(ctx, "", args...)
}

// runWithStdin executes git feeding stdin, used for apply and commit so
// patch and message content never touches the filesystem.
func (r *Runner) runWithStdin(ctx context.Context, stdin string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &GitError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// output runs git and returns whitespace-trimmed stdout.
func (r *Runner) output(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
