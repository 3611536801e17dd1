// Package gitref exposes a git repository's commit history as a read-only
// OT tree, demonstrating spec §4.3's "more adaptors may be added
// analogously" clause with a second "expensive" subtree alongside the
// registry adaptor's info/params.
//
// Grounded on internal/ingest/git.go's LoadGitCommits: the same `git log`
// invocation and custom-separator line format, generalised from a single
// eager batch call into a lazily-loaded, restartable OT array. Each
// commit's changed-file list is a further per-commit lazy round trip
// (`git diff-tree`, not part of the original LoadGitCommits at all) —
// the "expensive" subtree this package adds by the same shape as the
// registry adaptor's info/params, grounded on internal/graph/graph.go's
// fileToNodes cache-then-reuse idiom for the caching half.
package gitref

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/agentic-research/otquery/ot"
)

// Commit is one parsed `git log` entry, in LoadGitCommits's field order.
type Commit struct {
	SHA     string
	Tree    string
	Parents []string
	Author  string
	Date    string
	Message string
}

// Repo lazily loads one repository's commit history and, per commit, its
// changed-file list.
type Repo struct {
	path string

	mu      sync.Mutex
	loaded  bool
	loadErr error
	commits []Commit

	filesLoaded map[string]bool
	files       map[string][]string
}

// New returns a Repo rooted at path. Nothing runs until the OT tree
// built from it is iterated.
func New(path string) *Repo {
	return &Repo{
		path:        path,
		filesLoaded: make(map[string]bool),
		files:       make(map[string][]string),
	}
}

// Commits builds the OT array of commit objects, in `git log --all` order.
func (r *Repo) Commits() ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		commits, err := r.ensureLoaded()
		if err != nil {
			return 0, err
		}
		i := cur.Index
		if i < 0 || i >= len(commits) {
			return 0, nil
		}
		*out = r.commitNode(commits[i]).WithIndex(i)
		cur.Index = i + 1
		return 1, nil
	})
}

func (r *Repo) ensureLoaded() ([]Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.commits, r.loadErr
	}
	r.commits, r.loadErr = loadCommits(r.path)
	r.loaded = true
	return r.commits, r.loadErr
}

func (r *Repo) commitNode(c Commit) ot.Node {
	fields := []struct {
		key   string
		build func() ot.Node
	}{
		{"sha", func() ot.Node { return ot.StringNode(c.SHA) }},
		{"tree", func() ot.Node { return ot.StringNode(c.Tree) }},
		{"parents", func() ot.Node { return parentsNode(c.Parents) }},
		{"author", func() ot.Node { return ot.StringNode(c.Author) }},
		{"date", func() ot.Node { return ot.StringNode(c.Date) }},
		{"message", func() ot.Node { return ot.StringNode(c.Message) }},
		{"files", func() ot.Node { return r.filesNode(c.SHA) }},
	}
	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(fields) {
			return 0, nil
		}
		f := fields[i]
		*out = f.build().WithKey(f.key)
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	})
}

func parentsNode(parents []string) ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(parents) {
			return 0, nil
		}
		*out = ot.StringNode(parents[i]).WithIndex(i)
		cur.Index = i + 1
		return 1, nil
	}).WithFlags(ot.FlatFlag)
}

// filesNode is the expensive, lazily-fetched changed-file list for one
// commit: entering it the first time shells out to `git diff-tree`;
// later entries reuse the cached slice, the same cache-then-reuse shape
// as the registry adaptor's info/params subtrees.
func (r *Repo) filesNode(sha string) ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		files, err := r.ensureFiles(sha)
		if err != nil {
			return 0, err
		}
		i := cur.Index
		if i < 0 || i >= len(files) {
			return 0, nil
		}
		*out = ot.StringNode(files[i]).WithIndex(i)
		cur.Index = i + 1
		return 1, nil
	}).WithFlags(ot.ExpensiveFlag)
}

func (r *Repo) ensureFiles(sha string) ([]string, error) {
	r.mu.Lock()
	if r.filesLoaded[sha] {
		files := r.files[sha]
		r.mu.Unlock()
		return files, nil
	}
	r.mu.Unlock()

	files, err := diffTreeFiles(r.path, sha)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.files[sha] = files
	r.filesLoaded[sha] = true
	r.mu.Unlock()
	return files, nil
}

// InvalidateFiles discards a commit's cached file list — a rewritten
// history (e.g. a rebase landing the same SHA from a filter-branch run)
// can make a previously-fetched list stale.
func (r *Repo) InvalidateFiles(sha string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, sha)
	delete(r.filesLoaded, sha)
}

// loadCommits mirrors LoadGitCommits's `git log --all` invocation and
// separator-delimited scan, adapted to the Commit struct above instead of
// a map[string]any.
func loadCommits(repoPath string) ([]Commit, error) {
	const sep = "|||OTQUERY_SEP|||"
	format := "%H%n%T%n%P%n%an%n%aI%n%B" + sep

	cmd := exec.CommandContext(context.Background(), "git", "log", "--all", "--date=iso", fmt.Sprintf("--pretty=format:%s", format))
	cmd.Dir = repoPath

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gitref: git log: %w", err)
	}

	var commits []Commit
	scanner := bufio.NewScanner(&out)
	scanner.Split(func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, []byte(sep)); i >= 0 {
			return i + len(sep), data[0:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	})

	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lines := strings.SplitN(text, "\n", 6)
		if len(lines) < 6 {
			if len(lines) >= 5 {
				lines = append(lines, "")
			} else {
				continue
			}
		}
		commits = append(commits, Commit{
			SHA:     lines[0],
			Tree:    lines[1],
			Parents: strings.Fields(lines[2]),
			Author:  lines[3],
			Date:    lines[4],
			Message: strings.TrimSpace(lines[5]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gitref: scanning git log output: %w", err)
	}
	return commits, nil
}

func diffTreeFiles(repoPath, sha string) ([]string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "diff-tree", "--no-commit-id", "--name-only", "-r", sha)
	cmd.Dir = repoPath

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("gitref: git diff-tree %s: %w", sha, err)
	}

	var files []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			files = append(files, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gitref: scanning diff-tree output: %w", err)
	}
	return files, nil
}
