package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/m-mizutani/gitflow-release/pkg/domain/interfaces"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// MockRepository is an in-memory GitRepository. It tracks the checked-out branch and which
// branches are reachable from which, and records every mutating call.
type MockRepository struct {
	mu      sync.Mutex
	current string
	// reachable[b] holds the branches b has been merged into
	reachable map[string]map[string]bool
	tags      []string
	calls     []string

	checkoutFunc func(branch string, opts interfaces.CheckoutOptions) error
	pullFunc     func(remote, branch string) error
	mergeFunc    func(target, source string) error
	commitFunc   func(message string, files []string) error
	pushFunc     func(remote string, branches []string) error
	deleteFunc   func(name string) error
}

var _ interfaces.GitRepository = (*MockRepository)(nil)

func NewMockRepository(current string, branches ...string) *MockRepository {
	m := &MockRepository{
		current:   current,
		reachable: make(map[string]map[string]bool),
	}
	for _, b := range append([]string{current}, branches...) {
		m.reachable[b] = map[string]bool{b: true}
	}
	return m
}

func (m *MockRepository) record(format string, args ...any) {
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *MockRepository) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

func (m *MockRepository) Tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.tags...)
}

func (m *MockRepository) HasBranch(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.reachable[name]
	return ok
}

func (m *MockRepository) CurrentBranch(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *MockRepository) Checkout(ctx context.Context, branch string, opts interfaces.CheckoutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.Create {
		m.record("checkout -b %s", branch)
	} else {
		m.record("checkout %s", branch)
	}
	if m.checkoutFunc != nil {
		if err := m.checkoutFunc(branch, opts); err != nil {
			return err
		}
	}

	_, exists := m.reachable[branch]
	switch {
	case opts.Create && exists:
		return goerr.New("branch already exists", goerr.V("branch", branch))
	case !opts.Create && !exists:
		return goerr.New("pathspec did not match", goerr.V("branch", branch))
	case opts.Create:
		// the new branch starts at current HEAD
		created := map[string]bool{branch: true}
		for target := range m.reachable[m.current] {
			created[target] = true
		}
		for _, into := range m.reachable {
			if into[m.current] {
				into[branch] = true
			}
		}
		m.reachable[branch] = created
	}
	m.current = branch
	return nil
}

func (m *MockRepository) Pull(ctx context.Context, remote, branch string, opts interfaces.PullOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("pull %s %s", remote, branch)
	if m.pullFunc != nil {
		return m.pullFunc(remote, branch)
	}
	return nil
}

func (m *MockRepository) Merge(ctx context.Context, branch string, opts interfaces.MergeOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("merge %s <- %s", m.current, branch)
	if m.mergeFunc != nil {
		if err := m.mergeFunc(m.current, branch); err != nil {
			return err
		}
	}
	if _, ok := m.reachable[branch]; !ok {
		return goerr.New("not something we can merge", goerr.V("branch", branch))
	}
	// everything reachable from branch becomes reachable from current
	for _, into := range m.reachable {
		if into[branch] {
			into[m.current] = true
		}
	}
	return nil
}

func (m *MockRepository) Tag(ctx context.Context, name, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("tag %s on %s", name, m.current)
	m.tags = append(m.tags, name)
	return nil
}

func (m *MockRepository) DeleteBranch(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("branch -d %s", name)
	if m.deleteFunc != nil {
		if err := m.deleteFunc(name); err != nil {
			return err
		}
	}
	delete(m.reachable, name)
	return nil
}

func (m *MockRepository) IsMerged(ctx context.Context, branch, target string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable[branch][target], nil
}

func (m *MockRepository) Commit(ctx context.Context, message string, files []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("commit on %s: %s", m.current, message)
	if m.commitFunc != nil {
		if err := m.commitFunc(message, files); err != nil {
			return err
		}
	}
	// the new commit exists only on the current branch
	m.reachable[m.current] = map[string]bool{m.current: true}
	return nil
}

func (m *MockRepository) Push(ctx context.Context, remote string, branches []string, opts interfaces.PushOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("push %s %v tags=%t", remote, branches, opts.Tags)
	if m.pushFunc != nil {
		return m.pushFunc(remote, branches)
	}
	return nil
}

// MockHistory is a CommitHistory returning fixed answers
type MockHistory struct {
	level        model.BumpLevel
	recommendErr error
	entries      string
	entriesErr   error

	recommendCalls int
	entriesCalls   []string
}

var _ interfaces.CommitHistory = (*MockHistory)(nil)

func (m *MockHistory) RecommendBump(ctx context.Context, preset string) (model.BumpLevel, error) {
	m.recommendCalls++
	return m.level, m.recommendErr
}

func (m *MockHistory) ChangelogEntries(ctx context.Context, preset string, version model.ResolvedVersion) (string, error) {
	m.entriesCalls = append(m.entriesCalls, version.String())
	if m.entriesErr != nil {
		return "", m.entriesErr
	}
	if m.entries != "" {
		return m.entries, nil
	}
	return fmt.Sprintf("# %s\n\n", version.String()), nil
}

// MockNotifier records notified reports
type MockNotifier struct {
	err     error
	reports []*model.RunReport
}

func (m *MockNotifier) NotifyRelease(ctx context.Context, report *model.RunReport) error {
	m.reports = append(m.reports, report)
	return m.err
}
