package service

import (
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/jasebbot/internal/domain"
	"github.com/set-night/jasebbot/internal/metrics"
)

// RelayService owns the in-memory user to owner chat sessions.
type RelayService struct {
	mu        sync.RWMutex
	ownerID   int64
	sessions  map[int64]domain.ChatSession
	forwarded map[int]int64
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewRelayService(ownerID int64, m *metrics.Metrics) *RelayService {
	return &RelayService{
		ownerID:   ownerID,
		metrics:   m,
		sessions:  make(map[int64]domain.ChatSession),
		forwarded: make(map[int]int64),
		now:       time.Now,
	}
}

// Connect binds userID to the main owner. Connecting twice keeps the first session.
func (s *RelayService) Connect(userID int64) domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[userID]; ok && sess.Active {
		return sess
	}
	sess := domain.ChatSession{UserID: userID, OwnerID: s.ownerID, Active: true, StartedAt: s.now()}
	s.sessions[userID] = sess
	s.metrics.SetRelaySessions(len(s.sessions))
	return sess
}

// Disconnect ends the session and forgets its forwarded messages.
func (s *RelayService) Disconnect(userID int64) (domain.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return domain.ChatSession{}, false
	}
	delete(s.sessions, userID)
	s.metrics.SetRelaySessions(len(s.sessions))
	for msgID, uid := range s.forwarded {
		if uid == userID {
			delete(s.forwarded, msgID)
		}
	}
	return sess, true
}

func (s *RelayService) Session(userID int64) (domain.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	return sess, ok && sess.Active
}

// RememberForward maps the owner-side copy of a relayed message to its sender.
func (s *RelayService) RememberForward(ownerMessageID int, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forwarded[ownerMessageID] = userID
}

// ResolveReply finds the user an owner reply is addressed to. The reply must
// target a relayed message of a user whose session is still active.
func (s *RelayService) ResolveReply(ownerID int64, replyTo *models.Message) (int64, error) {
	if replyTo == nil {
		return 0, domain.ErrNoReply
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var userID int64
	if origin := replyTo.ForwardOrigin; origin != nil && origin.MessageOriginUser != nil {
		userID = origin.MessageOriginUser.SenderUser.ID
	} else if uid, ok := s.forwarded[replyTo.ID]; ok {
		userID = uid
	}
	if userID == 0 {
		return 0, domain.ErrNoSession
	}

	sess, ok := s.sessions[userID]
	if !ok || !sess.Active || sess.OwnerID != ownerID {
		return 0, domain.ErrNoSession
	}
	return userID, nil
}

func (s *RelayService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
