package tools

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koopa0/scribe/internal/log"
)

// initRepo creates a git repository with one commit touching two files.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init", "-q")
	for _, name := range []string{"overview.md", "plan.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	run("add", ".")
	run("commit", "-q", "-m", "add project docs")
	return dir
}

func newTestHistory(t *testing.T, dir string) *History {
	t.Helper()
	h, err := NewHistory(dir, 10*time.Second, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestRecentSummarizesCommits(t *testing.T) {
	h := newTestHistory(t, initRepo(t))

	res := h.Recent(context.Background(), RecentHistoryInput{Days: 7})
	if res.Status != StatusSuccess {
		t.Fatalf("Recent failed: %s", res.Output)
	}

	for _, want := range []string{
		"Git history for the last 7 days:",
		"Total commits: 1",
		"Files modified: 2",
		"add project docs",
		"overview.md",
		"plan.md",
	} {
		if !strings.Contains(res.Output, want) {
			t.Errorf("output missing %q:\n%s", want, res.Output)
		}
	}
}

func TestRecentDefaultsDays(t *testing.T) {
	h := newTestHistory(t, initRepo(t))

	res := h.Recent(context.Background(), RecentHistoryInput{})
	if res.Status != StatusSuccess {
		t.Fatalf("Recent failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "Git history for the last 7 days:") {
		t.Errorf("default days not applied:\n%s", res.Output)
	}
}

func TestRecentNoCommitsInRange(t *testing.T) {
	dir := initRepo(t)
	h := newTestHistory(t, dir)

	// Pretend today is far in the future so the commit falls out of range.
	h.now = func() time.Time { return time.Now().AddDate(1, 0, 0) }

	res := h.Recent(context.Background(), RecentHistoryInput{Days: 7})
	if res.Status != StatusSuccess {
		t.Fatalf("Recent failed: %s", res.Output)
	}
	if res.Output != "No commits found in the last 7 days." {
		t.Errorf("output = %q", res.Output)
	}
}

func TestRecentNotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	h := newTestHistory(t, t.TempDir())

	res := h.Recent(context.Background(), RecentHistoryInput{Days: 7})
	if res.Status != StatusError || res.Error.Code != ErrCodeExecution {
		t.Fatalf("result = %+v, want ExecutionFailed error", res)
	}
	if !strings.HasPrefix(res.Output, "Error running git log:") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestCountDistinctFiles(t *testing.T) {
	filesOut := "\noverview.md\nplan.md\n\n\noverview.md\n"
	if got := countDistinctFiles(filesOut); got != 2 {
		t.Errorf("countDistinctFiles = %d, want 2", got)
	}
}
