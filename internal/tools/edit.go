package tools

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/koopa0/scribe/internal/policy"
	"github.com/koopa0/scribe/internal/security"
)

// DocExtension is the only document type the editor will modify.
const DocExtension = ".md"

// EditDocumentInput defines arguments for the edit_document tool.
type EditDocumentInput struct {
	FilePath    string `json:"file_path" jsonschema_description:"Path to the document relative to the project root (e.g. 'project_alpha/todo.md')"`
	FindText    string `json:"find_text" jsonschema_description:"The exact text to find in the document (must match exactly, including whitespace)"`
	ReplaceText string `json:"replace_text" jsonschema_description:"The text to replace it with"`
}

// Editor performs access-checked find-and-replace edits on markdown
// documents under the project root.
type Editor struct {
	paths  *security.Path
	logger *slog.Logger
}

// NewEditor creates a document editor.
func NewEditor(paths *security.Path, logger *slog.Logger) (*Editor, error) {
	if paths == nil {
		return nil, fmt.Errorf("path validator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{paths: paths, logger: logger}, nil
}

// Edit replaces the first occurrence of find_text in the named document.
// The scope check runs before any filesystem access, and a denied or failed
// edit leaves the document untouched. Checks run in a fixed order so the
// model receives the most specific message: access, existence, document
// type, match.
func (e *Editor) Edit(scope policy.Scope, input EditDocumentInput) Result {
	e.logger.Info("edit_document called", "path", input.FilePath, "scope", scope.String())

	partition := topPartition(input.FilePath)
	if !scope.Allows(partition) {
		return failure(ErrCodeAccessDenied, fmt.Sprintf(
			"Error: You don't have access to edit files in '%s'. This channel can only access: %s",
			partition, strings.Join(scope.Partitions(), ", ")))
	}

	safePath, err := e.paths.Validate(input.FilePath)
	if err != nil {
		return failure(ErrCodeInvalidArguments,
			fmt.Sprintf("Error: Invalid file path '%s'.", input.FilePath))
	}

	if _, statErr := os.Stat(safePath); statErr != nil {
		return failure(ErrCodeNotFound,
			fmt.Sprintf("Error: File '%s' does not exist.", input.FilePath))
	}

	if filepath.Ext(safePath) != DocExtension {
		return failure(ErrCodeUnsupportedType,
			"Error: Can only edit markdown (.md) files.")
	}

	raw, err := os.ReadFile(safePath) // #nosec G304 -- path validated above
	if err != nil {
		return failure(ErrCodeExecution,
			fmt.Sprintf("Error: Could not read '%s': %v", input.FilePath, err))
	}
	content := string(raw)

	if !strings.Contains(content, input.FindText) {
		return failure(ErrCodeTextNotFound, fmt.Sprintf(
			"Error: Could not find the specified text in '%s'. Make sure it matches exactly.",
			input.FilePath))
	}

	updated := strings.Replace(content, input.FindText, input.ReplaceText, 1)
	if err := os.WriteFile(safePath, []byte(updated), 0o600); err != nil {
		return failure(ErrCodeExecution,
			fmt.Sprintf("Error: Could not write '%s': %v", input.FilePath, err))
	}

	e.logger.Info("document updated", "path", input.FilePath)
	return success(fmt.Sprintf("Updated '%s': replaced text successfully.", input.FilePath))
}

// topPartition extracts the first path segment, which names the content
// partition the document lives in. Root-level documents map to the empty
// partition.
func topPartition(relPath string) string {
	clean := path.Clean(filepath.ToSlash(relPath))
	if !strings.Contains(clean, "/") {
		return ""
	}
	segment, _, _ := strings.Cut(clean, "/")
	return segment
}
