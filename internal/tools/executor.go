package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/koopa0/scribe/internal/policy"
)

// Executor dispatches model tool invocations to their implementations.
// Every argument payload is validated here before a tool runs; a malformed
// or unknown invocation becomes a textual result so one bad tool call never
// aborts the conversation turn.
type Executor struct {
	editor  *Editor
	history *History
	logger  *slog.Logger
}

// NewExecutor creates a tool executor.
func NewExecutor(editor *Editor, history *History, logger *slog.Logger) (*Executor, error) {
	if editor == nil {
		return nil, fmt.Errorf("editor is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{editor: editor, history: history, logger: logger}, nil
}

// Execute runs the named tool with the caller's access scope. Arguments
// arrive as the untyped map the model produced and are decoded into the
// tool's input type at this boundary.
func (x *Executor) Execute(ctx context.Context, scope policy.Scope, name string, args map[string]any) Result {
	switch name {
	case EditDocumentName:
		var input EditDocumentInput
		if err := decodeArgs(args, &input); err != nil {
			return failure(ErrCodeInvalidArguments,
				fmt.Sprintf("Error: Invalid arguments for tool '%s': %v", name, err))
		}
		if input.FilePath == "" {
			return failure(ErrCodeInvalidArguments,
				fmt.Sprintf("Error: Tool '%s' requires 'file_path'.", name))
		}
		if input.FindText == "" {
			return failure(ErrCodeInvalidArguments,
				fmt.Sprintf("Error: Tool '%s' requires 'find_text'.", name))
		}
		return x.editor.Edit(scope, input)

	case RecentHistoryName:
		var input RecentHistoryInput
		if err := decodeArgs(args, &input); err != nil {
			return failure(ErrCodeInvalidArguments,
				fmt.Sprintf("Error: Invalid arguments for tool '%s': %v", name, err))
		}
		return x.history.Recent(ctx, input)

	default:
		x.logger.Warn("unknown tool requested", "tool", name)
		return failure(ErrCodeUnknownTool, fmt.Sprintf("Unknown tool: %s", name))
	}
}

// decodeArgs converts the model's untyped argument map into a typed input
// through a JSON round trip, which applies the same field names and types
// the tool schema advertises.
func decodeArgs(args map[string]any, into any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}
