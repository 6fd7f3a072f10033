// Package session holds per-project chat sessions for video Q&A. Sessions
// live in memory with a TTL and a hard cap on the number of concurrent
// sessions; the oldest idle session is evicted when the cap is hit.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/oracle"
	"github.com/reelcut/reelcut-server/internal/storage"
)

const (
	DefaultMaxSessions = 256
	DefaultTTL         = 30 * time.Minute

	// maxHistory bounds the per-session transcript; older exchanges are
	// dropped pairwise once exceeded.
	maxHistory = 200

	DefaultHistoryLimit = 10
)

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Answer is the result of one question.
type Answer struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Info summarizes a live session.
type Info struct {
	UserID           string `json:"user_id"`
	ProjectID        string `json:"project_id"`
	SessionID        string `json:"session_id"`
	ChatHistoryCount int    `json:"chat_history_count"`
}

// SearchHit is one timeline line matching a keyword search.
type SearchHit struct {
	Content string `json:"content"`
}

type chatSession struct {
	id          string
	userID      string
	projectID   string
	description string
	history     []Message
	lastUsed    time.Time
	mu          sync.Mutex
}

func (s *chatSession) systemPrompt() string {
	return "You are a video Q&A assistant for answering questions about video content. " +
		"Answer using the provided video context:\n\nContext:\n" + s.description
}

// Store owns all live sessions.
type Store struct {
	repo   metastore.Repository
	oracle oracle.Oracle
	logger *slog.Logger

	maxSessions int
	ttl         time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*chatSession
}

func NewStore(repo metastore.Repository, orc oracle.Oracle, maxSessions int, ttl time.Duration, logger *slog.Logger) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		repo:        repo,
		oracle:      orc,
		logger:      logger,
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*chatSession),
	}
}

// Open returns the existing session when sessionID names a live one for
// the same user and project, otherwise creates a fresh session seeded with
// the project's timeline description. Returns the session ID.
func (st *Store) Open(ctx context.Context, userID, projectID, sessionID string) (string, error) {
	if sessionID != "" {
		st.mu.Lock()
		if s, ok := st.sessions[sessionID]; ok && s.userID == userID && s.projectID == projectID {
			s.lastUsed = st.now()
			st.mu.Unlock()
			return sessionID, nil
		}
		st.mu.Unlock()
	}

	project, err := st.repo.GetProject(ctx, userID, projectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.Timeline == "" {
		return "", fmt.Errorf("%w: project %s", storage.ErrNotFound, projectID)
	}

	s := &chatSession{
		id:          uuid.NewString(),
		userID:      userID,
		projectID:   projectID,
		description: project.Timeline,
		lastUsed:    st.now(),
	}

	st.mu.Lock()
	st.evictLocked()
	st.sessions[s.id] = s
	st.mu.Unlock()

	st.logger.Info("chat session opened",
		"session_id", s.id, "user_id", userID, "project_id", projectID)
	return s.id, nil
}

// evictLocked drops expired sessions, then the least recently used one if
// the store is still at capacity. Callers hold st.mu.
func (st *Store) evictLocked() {
	cutoff := st.now().Add(-st.ttl)
	for id, s := range st.sessions {
		if s.lastUsed.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
	for len(st.sessions) >= st.maxSessions {
		var oldestID string
		var oldest time.Time
		for id, s := range st.sessions {
			if oldestID == "" || s.lastUsed.Before(oldest) {
				oldestID, oldest = id, s.lastUsed
			}
		}
		st.logger.Warn("session store full, evicting", "session_id", oldestID)
		delete(st.sessions, oldestID)
	}
}

func (st *Store) get(sessionID string) (*chatSession, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", storage.ErrNotFound, sessionID)
	}
	if s.lastUsed.Before(st.now().Add(-st.ttl)) {
		delete(st.sessions, sessionID)
		return nil, fmt.Errorf("%w: session %s", storage.ErrNotFound, sessionID)
	}
	s.lastUsed = st.now()
	return s, nil
}

// Ask answers one question against the session's video context and appends
// the exchange to the transcript.
func (st *Store) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	s, err := st.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prompt := fmt.Sprintf("%s\n\nUser: %s\nAssistant:", s.systemPrompt(), question)
	response, err := st.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	at := st.now().UTC()
	s.history = append(s.history,
		Message{Role: "user", Content: question, Timestamp: at},
		Message{Role: "assistant", Content: response, Timestamp: at},
	)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}

	return &Answer{Response: response, SessionID: s.id, Timestamp: at}, nil
}

// History returns the most recent transcript entries, newest last.
func (st *Store) History(sessionID string, limit int) ([]Message, error) {
	s, err := st.get(sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.history) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(s.history)-start)
	copy(out, s.history[start:])
	return out, nil
}

// Search returns every timeline line containing the keyword, matched
// case-insensitively.
func (st *Store) Search(sessionID, keyword string) ([]SearchHit, error) {
	s, err := st.get(sessionID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	hits := []SearchHit{}
	for _, line := range strings.Split(s.description, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			hits = append(hits, SearchHit{Content: line})
		}
	}
	return hits, nil
}

// SessionInfo describes a live session for the API surface.
func (st *Store) SessionInfo(sessionID string) (*Info, error) {
	s, err := st.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &Info{
		UserID:           s.userID,
		ProjectID:        s.projectID,
		SessionID:        s.id,
		ChatHistoryCount: len(s.history),
	}, nil
}
