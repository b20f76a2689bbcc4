// Package slackbot connects the conversation engine to Slack over Socket
// Mode. Channel mentions and direct messages both map to conversations
// keyed by channel id, so a channel and a DM each get their own memory.
package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const (
	// thinkingMessage is posted while a turn is being processed and deleted
	// once the reply is ready.
	thinkingMessage = "_Thinking..._"

	// greeting is posted when the bot is mentioned with no actual request.
	greeting = "Hi! Ask me about the project documents, or ask me to update them."
)

// TurnHandler processes one user message and returns the reply text.
// Implementations never fail; errors are folded into the reply.
type TurnHandler interface {
	HandleTurn(ctx context.Context, conversationID, text string) string
}

// chatAPI is the slice of the Slack Web API the bot uses for replies.
type chatAPI interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	DeleteMessage(channelID, timestamp string) (string, string, error)
}

// Config contains all required parameters for the Bot.
type Config struct {
	BotToken string // xoxb- token for the Web API
	AppToken string // xapp- token for Socket Mode
	Turns    TurnHandler
	Logger   *slog.Logger
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.BotToken == "" {
		return errors.New("bot token is required")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return errors.New("app token must have the prefix \"xapp-\"")
	}
	if cfg.Turns == nil {
		return errors.New("turn handler is required")
	}
	return nil
}

// Bot is the Socket Mode event loop.
type Bot struct {
	api    chatAPI
	socket *socketmode.Client
	turns  TurnHandler
	logger *slog.Logger
}

// New creates a Slack bot. It does not connect; call Run.
func New(cfg Config) (*Bot, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	socket := socketmode.New(api)

	return &Bot{
		api:    api,
		socket: socket,
		turns:  cfg.Turns,
		logger: logger,
	}, nil
}

// Run connects to Slack and processes events until the context is
// canceled. Each inbound message is handled in its own goroutine; the
// orchestrator serializes turns per conversation, so concurrent events in
// one channel still execute in order.
func (b *Bot) Run(ctx context.Context) error {
	go b.consumeEvents(ctx)

	b.logger.Info("connecting to slack")
	if err := b.socket.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("socket mode: %w", err)
	}
	return nil
}

// consumeEvents drains the socket event channel.
func (b *Bot) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.socket.Events:
			if !ok {
				return
			}
			b.dispatch(ctx, evt)
		}
	}
}

// dispatch routes one socket event.
func (b *Bot) dispatch(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		b.logger.Info("connected to slack")
	case socketmode.EventTypeConnectionError:
		b.logger.Warn("slack connection error", "data", evt.Data)
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.socket.Ack(*evt.Request)
		}
		b.handleEventsAPI(ctx, apiEvent)
	}
}

// handleEventsAPI handles one Events API payload.
func (b *Bot) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		text := stripMention(ev.Text)
		if text == "" {
			go b.post(ev.Channel, greeting)
			return
		}
		go b.respond(ctx, ev.Channel, text)

	case *slackevents.MessageEvent:
		if !isDirectMessage(ev) {
			return
		}
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return
		}
		go b.respond(ctx, ev.Channel, text)
	}
}

// respond runs one turn and delivers the reply, with a temporary thinking
// indicator while the model works.
func (b *Bot) respond(ctx context.Context, channelID, text string) {
	_, thinkingTS, err := b.api.PostMessage(channelID, slack.MsgOptionText(thinkingMessage, false))
	if err != nil {
		b.logger.Warn("posting thinking indicator", "channel", channelID, "error", err)
	}

	reply := b.turns.HandleTurn(ctx, channelID, text)

	if thinkingTS != "" {
		if _, _, err := b.api.DeleteMessage(channelID, thinkingTS); err != nil {
			b.logger.Warn("deleting thinking indicator", "channel", channelID, "error", err)
		}
	}

	b.post(channelID, reply)
}

// post sends one plain text message.
func (b *Bot) post(channelID, text string) {
	if _, _, err := b.api.PostMessage(channelID, slack.MsgOptionText(text, false)); err != nil {
		b.logger.Error("posting message", "channel", channelID, "error", err)
	}
}

// isDirectMessage reports whether a message event is a human DM to the bot.
// Bot messages and channel chatter are ignored; channels are served through
// mentions only.
func isDirectMessage(ev *slackevents.MessageEvent) bool {
	if ev.ChannelType != "im" {
		return false
	}
	if ev.BotID != "" || ev.SubType != "" {
		return false
	}
	return true
}

// stripMention removes the leading <@UXXXX> mention from channel messages.
func stripMention(text string) string {
	if _, rest, found := strings.Cut(text, ">"); found {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}
