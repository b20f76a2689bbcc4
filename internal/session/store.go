// Package session provides the in-memory, time-boxed conversation store.
//
// Each conversation (Slack channel or DM) owns one session: an ordered
// message history with a last-activity timestamp. Sessions expire after a
// period of inactivity and are replaced with fresh ones on next access,
// never repaired in place. History is bounded: once the cap is exceeded the
// oldest messages are discarded first (FIFO on insertion order).
//
// The store is process-lifetime only. Nothing is persisted across restarts.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// Config contains the parameters for a Store.
type Config struct {
	// Timeout is the inactivity window after which a session expires.
	// Zero uses 30 minutes.
	Timeout time.Duration

	// MaxMessages caps the stored message count per session.
	// Zero uses 40 (20 exchange pairs).
	MaxMessages int

	// Logger for debugging (nil = slog.Default()).
	Logger *slog.Logger

	// Now overrides the clock, for tests (nil = time.Now).
	Now func() time.Time
}

// Store maps conversation identifiers to bounded, time-boxed message
// histories. Safe for concurrent use by multiple goroutines.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state

	timeout  time.Duration
	capacity int
	now      func() time.Time
	logger   *slog.Logger
}

// state is one conversation's session. There is no stored "expired" flag:
// expiry is computed at read time from lastActivity, and an expired session
// is indistinguishable from an absent one.
type state struct {
	messages     []*ai.Message
	lastActivity time.Time
}

// New creates a session store.
func New(cfg Config) *Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 40
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		sessions: make(map[string]*state),
		timeout:  cfg.Timeout,
		capacity: cfg.MaxMessages,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
}

// History returns the message history for a conversation, creating a fresh
// session when none exists or the previous one has expired. Before the
// lookup it sweeps every expired session in the store, which is linear in
// active sessions and fine at expected conversation counts. The session's last-activity
// timestamp is refreshed.
//
// The returned slice is a copy; callers may append to it freely.
func (s *Store) History(conversationID string) []*ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	st, ok := s.sessions[conversationID]
	if !ok {
		st = &state{}
		s.sessions[conversationID] = st
		s.logger.Debug("created session", "conversation_id", conversationID)
	}
	st.lastActivity = now

	history := make([]*ai.Message, len(st.messages))
	copy(history, st.messages)
	return history
}

// Append adds messages to a conversation's session, creating it if needed,
// and trims the history to the cap, discarding oldest first. Last-activity
// is refreshed.
func (s *Store) Append(conversationID string, messages ...*ai.Message) {
	if len(messages) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[conversationID]
	if !ok {
		st = &state{}
		s.sessions[conversationID] = st
	}

	st.messages = append(st.messages, messages...)
	if over := len(st.messages) - s.capacity; over > 0 {
		st.messages = st.messages[over:]
	}
	st.lastActivity = s.now()

	s.logger.Debug("appended messages",
		"conversation_id", conversationID,
		"added", len(messages),
		"total", len(st.messages))
}

// SweepExpired removes every expired session and returns how many were
// dropped. History performs the same sweep implicitly; this exists for
// explicit housekeeping and tests.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Active returns the number of live sessions.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweepLocked deletes expired sessions. Caller holds s.mu.
func (s *Store) sweepLocked(now time.Time) int {
	dropped := 0
	for id, st := range s.sessions {
		if now.Sub(st.lastActivity) > s.timeout {
			delete(s.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Debug("swept expired sessions", "dropped", dropped, "remaining", len(s.sessions))
	}
	return dropped
}
