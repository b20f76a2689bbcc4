package slackbot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/koopa0/scribe/internal/log"
)

type fakeChatAPI struct {
	mu      sync.Mutex
	posted  []string // channel ids of posted messages
	deleted []string // timestamps of deleted messages
	nextTS  int
}

func (f *fakeChatAPI) PostMessage(channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, channelID)
	f.nextTS++
	return channelID, fmt.Sprintf("ts-%d", f.nextTS), nil
}

func (f *fakeChatAPI) DeleteMessage(channelID, timestamp string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, timestamp)
	return channelID, timestamp, nil
}

type fakeTurns struct {
	mu    sync.Mutex
	calls []string // "conversation:text"
}

func (f *fakeTurns) HandleTurn(_ context.Context, conversationID, text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, conversationID+":"+text)
	return "reply to " + text
}

func TestRespondPostsAndCleansUp(t *testing.T) {
	api := &fakeChatAPI{}
	turns := &fakeTurns{}
	b := &Bot{api: api, turns: turns, logger: log.NewNop()}

	b.respond(context.Background(), "C123", "hello")

	if len(turns.calls) != 1 || turns.calls[0] != "C123:hello" {
		t.Fatalf("turn calls = %v", turns.calls)
	}
	// Thinking indicator plus final reply, indicator deleted in between.
	if len(api.posted) != 2 {
		t.Errorf("posted = %v, want 2 messages", api.posted)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "ts-1" {
		t.Errorf("deleted = %v, want thinking indicator", api.deleted)
	}
}

func (f *fakeChatAPI) postedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posted)
}

func TestEmptyMentionGetsGreeting(t *testing.T) {
	api := &fakeChatAPI{}
	turns := &fakeTurns{}
	b := &Bot{api: api, turns: turns, logger: log.NewNop()}

	b.handleEventsAPI(context.Background(), slackevents.EventsAPIEvent{
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Data: &slackevents.AppMentionEvent{Channel: "C1", Text: "<@U1>"},
		},
	})

	// The greeting is posted on its own goroutine.
	deadline := time.After(2 * time.Second)
	for api.postedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("no greeting posted")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(turns.calls) != 0 {
		t.Errorf("empty mention ran a turn: %v", turns.calls)
	}
}

func TestStripMention(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<@U12345> check the roadmap", "check the roadmap"},
		{"<@U12345>", ""},
		{"no mention here", "no mention here"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := stripMention(tt.in); got != tt.want {
			t.Errorf("stripMention(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsDirectMessage(t *testing.T) {
	tests := []struct {
		name string
		ev   *slackevents.MessageEvent
		want bool
	}{
		{"human dm", &slackevents.MessageEvent{ChannelType: "im"}, true},
		{"channel message", &slackevents.MessageEvent{ChannelType: "channel"}, false},
		{"bot message", &slackevents.MessageEvent{ChannelType: "im", BotID: "B1"}, false},
		{"edited message", &slackevents.MessageEvent{ChannelType: "im", SubType: "message_changed"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDirectMessage(tt.ev); got != tt.want {
				t.Errorf("isDirectMessage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	turns := &fakeTurns{}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BotToken: "xoxb-1", AppToken: "xapp-1", Turns: turns}, false},
		{"missing bot token", Config{AppToken: "xapp-1", Turns: turns}, true},
		{"bad app token", Config{BotToken: "xoxb-1", AppToken: "xoxb-2", Turns: turns}, true},
		{"missing handler", Config{BotToken: "xoxb-1", AppToken: "xapp-1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
