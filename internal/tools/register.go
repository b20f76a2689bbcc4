package tools

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/koopa0/scribe/internal/policy"
)

// scopeKey carries the conversation's access scope through the context so
// tool handlers can enforce it regardless of how the invocation arrives.
type scopeKey struct{}

// WithScope attaches an access scope to the context.
func WithScope(ctx context.Context, scope policy.Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom extracts the access scope from the context. A context without
// a scope yields the restricted-to-nothing scope, never unrestricted: a
// missing scope is a wiring bug and must fail closed.
func ScopeFrom(ctx context.Context) policy.Scope {
	if scope, ok := ctx.Value(scopeKey{}).(policy.Scope); ok {
		return scope
	}
	return policy.Restricted()
}

// Register defines both tools on the genkit instance so their schemas are
// advertised to the model. Handlers pull the access scope from the request
// context.
func Register(g *genkit.Genkit, x *Executor) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if x == nil {
		return nil, fmt.Errorf("executor is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, EditDocumentName,
			"Edit a markdown file by finding and replacing text. "+
				"Use this when the user asks to update, change, add, or remove content in project documents. "+
				"Replaces the first occurrence of find_text with replace_text.",
			func(ctx *ai.ToolContext, input EditDocumentInput) (string, error) {
				return x.editor.Edit(ScopeFrom(toolContext(ctx)), input).Output, nil
			}),
		genkit.DefineTool(g, RecentHistoryName,
			"Get git history of project changes from the last N days. "+
				"Use this when the user asks for 'weekly update', 'recent updates', 'what's new', or similar. "+
				"Returns commit messages and changed files.",
			func(ctx *ai.ToolContext, input RecentHistoryInput) (string, error) {
				return x.history.Recent(toolContext(ctx), input).Output, nil
			}),
	}, nil
}

// toolContext unwraps the genkit tool context, falling back to Background
// when the framework passes none.
func toolContext(ctx *ai.ToolContext) context.Context {
	if ctx != nil && ctx.Context != nil {
		return ctx.Context
	}
	return context.Background()
}
