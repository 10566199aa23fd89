package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/bituzin/stacks-boost-app/internal/logger"

	"go.uber.org/zap"
)

// Selector routes the uniform wallet capability to at most one active
// adapter. Switching adapters does not disconnect the previous one; its
// session stays alive in the background but is no longer observed.
type Selector struct {
	mu        sync.RWMutex
	adapters  map[Kind]Adapter
	active    Kind
	listeners map[int]func(Kind, Session)
	nextID    int
	unwatch   []func()
	logger    *zap.Logger
}

// NewSelector registers the given adapters. Nothing is selected initially.
func NewSelector(adapters ...Adapter) *Selector {
	s := &Selector{
		adapters:  make(map[Kind]Adapter, len(adapters)),
		listeners: make(map[int]func(Kind, Session)),
		logger:    logger.Log.With(zap.String("component", "wallet_selector")),
	}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		kind := a.Kind()
		s.adapters[kind] = a
		s.unwatch = append(s.unwatch, a.Subscribe(func(session Session) {
			s.adapterChanged(kind, session)
		}))
	}
	return s
}

// Select makes kind the active adapter. KindNone clears the selection.
func (s *Selector) Select(kind Kind) error {
	s.mu.Lock()
	if kind != KindNone {
		if _, ok := s.adapters[kind]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrUnknownWallet, kind)
		}
	}
	if s.active == kind {
		s.mu.Unlock()
		return nil
	}
	previous := s.active
	s.active = kind
	s.mu.Unlock()

	s.logger.Info("active wallet changed", zap.String("from", string(previous)), zap.String("to", string(kind)))
	s.notify(kind, s.Session())
	return nil
}

// ActiveKind returns the selected adapter kind
func (s *Selector) ActiveKind() Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Active returns the selected adapter or ErrNoWalletSelected
func (s *Selector) Active() (Adapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == KindNone {
		return nil, ErrNoWalletSelected
	}
	return s.adapters[s.active], nil
}

// Adapter returns a registered adapter regardless of selection
func (s *Selector) Adapter(kind Kind) (Adapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adapters[kind]
	return a, ok
}

// Kinds lists the registered adapter kinds
func (s *Selector) Kinds() []Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make([]Kind, 0, len(s.adapters))
	for _, k := range []Kind{KindExtension, KindRelay} {
		if _, ok := s.adapters[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Session returns the active adapter's session, or a disconnected session
// when nothing is selected
func (s *Selector) Session() Session {
	a, err := s.Active()
	if err != nil {
		return Session{Status: StatusDisconnected}
	}
	return a.Session()
}

// IsConnected reports whether the active adapter has a connected account
func (s *Selector) IsConnected() bool {
	return s.Session().Connected()
}

// IsPending reports whether the active adapter is mid-connection
func (s *Selector) IsPending() bool {
	return s.Session().Status == StatusPending
}

// Address returns the active adapter's account
func (s *Selector) Address() (string, bool) {
	a, err := s.Active()
	if err != nil {
		return "", false
	}
	return a.Address()
}

// Connect connects the active adapter
func (s *Selector) Connect(ctx context.Context) error {
	a, err := s.Active()
	if err != nil {
		return err
	}
	return a.Connect(ctx)
}

// Disconnect disconnects the active adapter
func (s *Selector) Disconnect(ctx context.Context) error {
	a, err := s.Active()
	if err != nil {
		return err
	}
	return a.Disconnect(ctx)
}

// Subscribe registers fn for changes of the observed session: a change of
// selection or a session change of the active adapter
func (s *Selector) Subscribe(fn func(Kind, Session)) func() {
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

// Close stops observing the registered adapters
func (s *Selector) Close() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	for _, fn := range unwatch {
		fn()
	}
}

func (s *Selector) adapterChanged(kind Kind, session Session) {
	if s.ActiveKind() != kind {
		return
	}
	s.notify(kind, session)
}

func (s *Selector) notify(kind Kind, session Session) {
	s.mu.RLock()
	listeners := make([]func(Kind, Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(kind, session)
	}
}
