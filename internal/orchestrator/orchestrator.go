// Package orchestrator drives one conversation turn end to end: it builds
// the outbound message list from session history plus fresh document
// context, calls the model, executes requested tools, feeds results back,
// and repeats until the model produces a plain text answer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/koopa0/scribe/internal/content"
	"github.com/koopa0/scribe/internal/policy"
	"github.com/koopa0/scribe/internal/session"
	"github.com/koopa0/scribe/internal/tools"
)

const (
	// DefaultMaxToolRounds bounds the tool-use loop. The model decides when
	// to stop requesting tools; this guard keeps a misbehaving model from
	// looping forever.
	DefaultMaxToolRounds = 8

	// fallbackReply is returned when the model finishes a turn with no text.
	fallbackReply = "I completed the action but have no additional message."

	// lockStripes is the number of conversation lock stripes.
	lockStripes = 64
)

// ErrTooManyToolRounds indicates the model kept requesting tools past the
// configured round limit and the turn was aborted.
var ErrTooManyToolRounds = errors.New("tool-use loop exceeded round limit")

// Config contains all required parameters for the Orchestrator.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Content  *content.Source
	Policy   *policy.Policy
	Executor *tools.Executor
	Tools    []ai.Tool // pre-registered via tools.Register
	Logger   *slog.Logger

	// ModelName is the provider-qualified model (e.g. "googleai/gemini-2.5-flash").
	ModelName string

	// MaxToolRounds caps tool-use rounds per turn (zero uses the default).
	MaxToolRounds int

	// RetryConfig for model calls (zero value uses defaults).
	RetryConfig RetryConfig
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Content == nil {
		return errors.New("content source is required")
	}
	if cfg.Policy == nil {
		return errors.New("access policy is required")
	}
	if cfg.Executor == nil {
		return errors.New("tool executor is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Orchestrator is the conversation engine. It is stateless apart from the
// injected session store; all configuration is captured immutably at
// construction time for thread-safe concurrent use.
type Orchestrator struct {
	g        *genkit.Genkit
	sessions *session.Store
	content  *content.Source
	policy   *policy.Policy
	executor *tools.Executor
	logger   *slog.Logger

	modelName     string
	maxToolRounds int
	retryConfig   RetryConfig
	toolRefs      []ai.ToolRef

	// locks serializes turns per conversation so concurrent events in the
	// same channel cannot interleave session reads and writes. Striping by
	// conversation id hash keeps the footprint fixed as conversations come
	// and go; unrelated conversations on the same stripe queue behind each
	// other, which is acceptable at this scale.
	locks [lockStripes]sync.Mutex
}

// New creates an Orchestrator with required configuration.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
	}

	return &Orchestrator{
		g:             cfg.Genkit,
		sessions:      cfg.Sessions,
		content:       cfg.Content,
		policy:        cfg.Policy,
		executor:      cfg.Executor,
		logger:        logger,
		modelName:     cfg.ModelName,
		maxToolRounds: maxRounds,
		retryConfig:   retryConfig,
		toolRefs:      toolRefs,
	}, nil
}

// HandleTurn processes one inbound user message and returns the reply text.
// Every failure mode folds into a user-visible string; the caller always
// has something to deliver. The session is only mutated after a reply is
// successfully computed, so a failed turn leaves history untouched.
func (o *Orchestrator) HandleTurn(ctx context.Context, conversationID, userText string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic during turn", "conversation_id", conversationID, "panic", r)
			reply = fmt.Sprintf("Sorry, I encountered an error: %v", r)
		}
	}()

	lock := o.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	text, err := o.runTurn(ctx, conversationID, userText)
	if err != nil {
		o.logger.Error("turn failed", "conversation_id", conversationID, "error", err)
		return fmt.Sprintf("Sorry, I encountered an error: %v", err)
	}
	return text
}

// runTurn executes the model/tool loop for one turn.
func (o *Orchestrator) runTurn(ctx context.Context, conversationID, userText string) (string, error) {
	turnID := uuid.NewString()
	scope := o.policy.ScopeFor(conversationID)
	documents := o.content.LoadVisible(scope)
	history := o.sessions.History(conversationID)

	logger := o.logger.With("conversation_id", conversationID, "turn_id", turnID)
	logger.Info("handling turn",
		"scope", scope.String(),
		"history_len", len(history))

	// The full document set rides in the first user message of a session;
	// later turns only reference it. The system prompt carries a fresh copy
	// every call regardless, so the model never acts on stale content.
	userMessage := contextMessage(userText, documents, len(history) == 0)

	messages := deepCopyMessages(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(userMessage)))

	ctx = tools.WithScope(ctx, scope)
	system := systemPrompt + "\n\nCurrent project documents:\n" + documents

	var resp *ai.ModelResponse
	for round := 0; ; round++ {
		var err error
		resp, err = o.generateWithRetry(ctx, []ai.GenerateOption{
			ai.WithModelName(o.modelName),
			ai.WithSystem(system),
			ai.WithTools(o.toolRefs...),
			ai.WithMessages(messages...),
			ai.WithReturnToolRequests(true),
		})
		if err != nil {
			return "", err
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			break
		}
		if round >= o.maxToolRounds {
			return "", fmt.Errorf("%w (%d rounds)", ErrTooManyToolRounds, o.maxToolRounds)
		}

		results := make([]*ai.Part, 0, len(requests))
		for _, req := range requests {
			result := o.executor.Execute(ctx, scope, req.Name, argumentMap(req.Input))
			logger.Debug("tool executed",
				"tool", req.Name,
				"ref", req.Ref,
				"status", result.Status)
			results = append(results, ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref,
				Output: result.Output,
			}))
		}

		messages = append(messages,
			resp.Message,
			ai.NewMessage(ai.RoleTool, nil, results...))
	}

	replyText := strings.TrimSpace(resp.Text())
	if replyText == "" {
		logger.Warn("model returned empty final response")
		replyText = fallbackReply
	}

	o.sessions.Append(conversationID,
		ai.NewUserMessage(ai.NewTextPart(userMessage)),
		ai.NewModelMessage(ai.NewTextPart(replyText)))

	return replyText, nil
}

// conversationLock returns the mutex serializing turns for a conversation.
// The same id always maps to the same stripe.
func (o *Orchestrator) conversationLock(conversationID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(conversationID))
	return &o.locks[h.Sum32()%lockStripes]
}

// contextMessage builds the user-role message for this turn.
func contextMessage(userText, documents string, firstTurn bool) string {
	if firstTurn {
		return fmt.Sprintf("Here are the current project documents:\n\n%s\n\n---\n\nUser request: %s",
			documents, userText)
	}
	return fmt.Sprintf("(Project documents still available from earlier in conversation)\n\nUser request: %s",
		userText)
}

// argumentMap normalizes a tool request's input into the map form the
// executor validates.
func argumentMap(input any) map[string]any {
	if input == nil {
		return nil
	}
	if m, ok := input.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": input}
}

// deepCopyMessages creates independent copies of history messages before a
// turn appends to them, so the slices backing the session store are never
// shared with the model call.
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		copy(parts, msg.Content)
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: msg.Metadata,
		}
	}
	return copied
}
