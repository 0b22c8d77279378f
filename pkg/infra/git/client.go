package git

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Client drives the git CLI against one working tree. Calls are serialized because the
// checked-out branch and index are shared by every operation.
type Client struct {
	mu     sync.Mutex
	dir    string
	runner Runner
}

var _ interfaces.GitRepository = (*Client)(nil)

// Option is a functional option for Client
type Option func(*Client)

// WithRunner replaces the git executor
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.runner = r
	}
}

// New creates a Client for the repository at dir
func New(dir string, opts ...Option) *Client {
	c := &Client{
		dir:    dir,
		runner: ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type result struct {
	stdout   string
	stderr   string
	exitCode int
}

func (c *Client) git(ctx context.Context, args ...string) (*result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gitLocked(ctx, args...)
}

func (c *Client) gitLocked(ctx context.Context, args ...string) (*result, error) {
	ctxlog.From(ctx).Debug("Running git", "args", args, "dir", c.dir)

	stdout, stderr, code, err := c.runner.Run(ctx, c.dir, args...)
	res := &result{stdout: string(stdout), stderr: string(stderr), exitCode: code}
	if err != nil {
		return res, commandError(err, args, stdout, stderr, code)
	}
	return res, nil
}

// CurrentBranch returns the checked-out branch
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	res, err := c.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", goerr.Wrap(err, "failed to get current branch")
	}
	branch := strings.TrimSpace(res.stdout)
	if branch == "HEAD" {
		return "", goerr.New("HEAD is detached", goerr.V("dir", c.dir))
	}
	return branch, nil
}

// Checkout switches to branch, creating it first when opts.Create is set
func (c *Client) Checkout(ctx context.Context, branch string, opts interfaces.CheckoutOptions) error {
	args := []string{"checkout"}
	if opts.Create {
		args = append(args, "-b")
	}
	args = append(args, branch)

	if _, err := c.git(ctx, args...); err != nil {
		return goerr.Wrap(err, "failed to checkout", goerr.V("branch", branch))
	}
	return nil
}

// Pull integrates branch from remote
func (c *Client) Pull(ctx context.Context, remote, branch string, opts interfaces.PullOptions) error {
	args := []string{"pull"}
	if opts.FastForwardOnly {
		args = append(args, "--ff-only")
	}
	args = append(args, remote, branch)

	if _, err := c.git(ctx, args...); err != nil {
		return goerr.Wrap(err, "failed to pull",
			goerr.T(model.ErrTagNetworkOperationFailed),
			goerr.V("remote", remote),
			goerr.V("branch", branch),
		)
	}
	return nil
}

// Merge merges branch into the checked-out branch. On conflict the merge is left in
// progress so it can be resolved by hand.
func (c *Client) Merge(ctx context.Context, branch string, opts interfaces.MergeOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := c.gitLocked(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return goerr.Wrap(err, "failed to get merge target")
	}

	args := []string{"merge"}
	if opts.NoFastForward {
		args = append(args, "--no-ff")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, branch)

	res, mergeErr := c.gitLocked(ctx, args...)
	if mergeErr == nil {
		return nil
	}

	conflicts, err := c.gitLocked(ctx, "diff", "--name-only", "--diff-filter=U")
	if err == nil && strings.TrimSpace(conflicts.stdout) != "" || strings.Contains(res.stdout, "CONFLICT") {
		var files []string
		if conflicts != nil {
			files = strings.Fields(conflicts.stdout)
		}
		return goerr.Wrap(mergeErr, "merge conflict",
			goerr.T(model.ErrTagMergeConflict),
			goerr.V("target", strings.TrimSpace(target.stdout)),
			goerr.V("source", branch),
			goerr.V("conflicts", files),
		)
	}

	return goerr.Wrap(mergeErr, "failed to merge",
		goerr.V("target", strings.TrimSpace(target.stdout)),
		goerr.V("source", branch),
	)
}

// Tag creates an annotated tag at HEAD
func (c *Client) Tag(ctx context.Context, name, message string) error {
	if _, err := c.git(ctx, "tag", "-a", name, "-m", message); err != nil {
		return goerr.Wrap(err, "failed to create tag", goerr.V("tag", name))
	}
	return nil
}

// DeleteBranch deletes a merged local branch
func (c *Client) DeleteBranch(ctx context.Context, name string) error {
	res, err := c.git(ctx, "branch", "-d", name)
	if err == nil {
		return nil
	}
	if strings.Contains(res.stderr, "not fully merged") {
		return goerr.Wrap(err, "branch is not fully merged",
			goerr.T(model.ErrTagBranchNotMerged), goerr.V("branch", name))
	}
	return goerr.Wrap(err, "failed to delete branch", goerr.V("branch", name))
}

// IsMerged reports whether branch is an ancestor of target
func (c *Client) IsMerged(ctx context.Context, branch, target string) (bool, error) {
	res, err := c.git(ctx, "merge-base", "--is-ancestor", branch, target)
	if err == nil {
		return true, nil
	}
	if res.exitCode == 1 {
		return false, nil
	}
	return false, goerr.Wrap(err, "failed to check ancestry",
		goerr.V("branch", branch), goerr.V("target", target))
}

// Commit stages files and commits them
func (c *Client) Commit(ctx context.Context, message string, files []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	add := append([]string{"add", "--"}, files...)
	if _, err := c.gitLocked(ctx, add...); err != nil {
		return goerr.Wrap(err, "failed to stage files", goerr.V("files", files))
	}

	diff := append([]string{"diff", "--cached", "--quiet", "--"}, files...)
	res, err := c.gitLocked(ctx, diff...)
	if err == nil {
		return goerr.New("nothing to commit",
			goerr.T(model.ErrTagNothingToCommit), goerr.V("files", files))
	}
	if res.exitCode != 1 {
		return goerr.Wrap(err, "failed to inspect staged changes")
	}

	commit := append([]string{"commit", "-m", message, "--"}, files...)
	if _, err := c.gitLocked(ctx, commit...); err != nil {
		return goerr.Wrap(err, "failed to commit", goerr.V("message", message))
	}
	return nil
}

// Push pushes branches to remote
func (c *Client) Push(ctx context.Context, remote string, branches []string, opts interfaces.PushOptions) error {
	args := []string{"push", remote}
	args = append(args, branches...)
	if opts.Tags {
		args = append(args, "--tags")
	}

	if _, err := c.git(ctx, args...); err != nil {
		return goerr.Wrap(err, "failed to push",
			goerr.T(model.ErrTagNetworkOperationFailed),
			goerr.V("remote", remote),
			goerr.V("branches", branches),
		)
	}
	return nil
}

// LastTag returns the most recent tag reachable from HEAD that starts with prefix,
// or "" when there is none.
func (c *Client) LastTag(ctx context.Context, prefix string) (string, error) {
	res, err := c.git(ctx, "describe", "--tags", "--abbrev=0", "--match", prefix+"*")
	if err != nil {
		if strings.Contains(res.stderr, "No names found") ||
			strings.Contains(res.stderr, "No tags can describe") ||
			strings.Contains(res.stderr, "cannot describe") {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to find last tag", goerr.V("prefix", prefix))
	}
	return strings.TrimSpace(res.stdout), nil
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Commits returns commits reachable from HEAD and not from since, newest first.
// An empty since returns the whole history.
func (c *Client) Commits(ctx context.Context, since string) ([]model.Commit, error) {
	args := []string{"log", "--format=%H" + fieldSep + "%s" + fieldSep + "%b" + recordSep}
	if since != "" {
		args = append(args, since+"..HEAD")
	}

	res, err := c.git(ctx, args...)
	if err != nil {
		// a repository without commits has no history to analyze
		if strings.Contains(res.stderr, "does not have any commits") {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read commit log", goerr.V("since", since))
	}

	var commits []model.Commit
	for _, record := range strings.Split(res.stdout, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 3)
		if len(fields) != 3 {
			continue
		}
		commits = append(commits, model.Commit{
			Hash:    fields[0],
			Subject: fields[1],
			Body:    strings.TrimSpace(fields[2]),
		})
	}
	return commits, nil
}
