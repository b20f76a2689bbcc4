package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultHistoryDays is the lookback window when the model omits days.
const DefaultHistoryDays = 7

// RecentHistoryInput defines arguments for the get_recent_history tool.
type RecentHistoryInput struct {
	Days int `json:"days,omitempty" jsonschema_description:"Number of days to look back (default: 7)"`
}

// History summarizes recent commits in the project repository via git
// subprocess invocations.
type History struct {
	repoDir string
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewHistory creates a git history summarizer rooted at repoDir.
func NewHistory(repoDir string, timeout time.Duration, logger *slog.Logger) (*History, error) {
	if repoDir == "" {
		return nil, fmt.Errorf("repository directory is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{
		repoDir: repoDir,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Recent returns a textual summary of commits in the last N days: commit
// count, distinct files touched, and the one-line log with changed files.
// A repository with no commits in range is a normal result, not an error.
func (h *History) Recent(ctx context.Context, input RecentHistoryInput) Result {
	days := input.Days
	if days <= 0 {
		days = DefaultHistoryDays
	}
	h.logger.Info("get_recent_history called", "days", days)

	since := h.now().AddDate(0, 0, -days).Format("2006-01-02")

	logOut, err := h.git(ctx, "log", "--since="+since,
		"--pretty=format:%h|%s|%ad", "--date=short", "--name-only")
	if err != nil {
		return failure(ErrCodeExecution, fmt.Sprintf("Error running git log: %v", err))
	}
	if strings.TrimSpace(logOut) == "" {
		return success(fmt.Sprintf("No commits found in the last %d days.", days))
	}

	commitCount := "unknown"
	if countOut, countErr := h.git(ctx, "rev-list", "--count", "--since="+since, "HEAD"); countErr == nil {
		commitCount = strings.TrimSpace(countOut)
	}

	// A bare format leaves only file names and separators in the output,
	// so distinct files are just the unique non-empty lines.
	distinctFiles := 0
	if filesOut, filesErr := h.git(ctx, "log", "--since="+since,
		"--pretty=format:", "--name-only"); filesErr == nil {
		distinctFiles = countDistinctFiles(filesOut)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Git history for the last %d days:\n\n", days)
	fmt.Fprintf(&b, "Total commits: %s\n", commitCount)
	fmt.Fprintf(&b, "Files modified: %d\n\n", distinctFiles)
	b.WriteString("Commits:\n")
	b.WriteString(logOut)

	return success(b.String())
}

// git runs one git subcommand in the repository directory with a timeout.
// Failures fold stderr into the returned error so the model sees what git
// complained about.
func (h *History) git(ctx context.Context, args ...string) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "git", args...)
	cmd.Dir = h.repoDir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s", msg)
	}
	return stdout.String(), nil
}

// countDistinctFiles counts unique non-empty lines.
func countDistinctFiles(filesOut string) int {
	files := make(map[string]struct{})
	for _, line := range strings.Split(filesOut, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files[line] = struct{}{}
		}
	}
	return len(files)
}
