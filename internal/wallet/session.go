package wallet

import (
	"sync"
)

// Status is the connection status of a wallet session
type Status string

const (
	StatusIdle         Status = "idle"
	StatusPending      Status = "pending"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Kind identifies an adapter implementation
type Kind string

const (
	KindNone      Kind = ""
	KindExtension Kind = "extension"
	KindRelay     Kind = "relay"
)

// ParseKind maps user input onto a Kind. The empty string selects none.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindNone, KindExtension, KindRelay:
		return Kind(s), true
	}
	return KindNone, false
}

// Session is a snapshot of an adapter's connection state
type Session struct {
	Status       Status `json:"status"`
	Address      string `json:"address,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

// Connected reports whether the session has an active account
func (s Session) Connected() bool {
	return s.Status == StatusConnected && s.Address != ""
}

// sessionState owns a Session and fans changes out to subscribers.
// Notifications are delivered in the order the changes were made.
type sessionState struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	session   Session
	listeners map[int]func(Session)
	nextID    int
}

func newSessionState() *sessionState {
	return &sessionState{
		session:   Session{Status: StatusIdle},
		listeners: make(map[int]func(Session)),
	}
}

func (s *sessionState) get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *sessionState) set(next Session) {
	if next.Status != StatusConnected {
		next.Address = ""
	}
	if next.Status != StatusError {
		next.ErrorMessage = ""
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.session == next {
		s.mu.Unlock()
		return
	}
	s.session = next
	listeners := make([]func(Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

func (s *sessionState) fail(message string) {
	s.set(Session{Status: StatusError, ErrorMessage: message})
}

func (s *sessionState) subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
