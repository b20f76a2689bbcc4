// Package tools implements the side-effecting operations the model may
// request during a conversation turn: first-occurrence text replacement in
// markdown documents (partition access checked per conversation) and a git
// history summary of the project repository.
//
// Each tool validates its own arguments at the dispatch boundary and
// reports expected failures as textual results the model can react to.
// Only context cancellation and programming errors surface as Go errors.
package tools
