package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// NotifierOptions configures SessionNotifier.
type NotifierOptions struct {
	Channel string
	Logger  *slog.Logger
}

// SessionNotifier broadcasts session changes over Redis pub/sub so every replica
// holding a scope sees sign-in and sign-out from any other replica.
// One pattern subscription is shared by all local listeners.
type SessionNotifier struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger

	mu        sync.Mutex
	pubsub    *redis.PubSub
	listeners map[string]map[uint64]func(domainauth.SessionEventType)
	nextID    uint64
	done      chan struct{}
}

var _ ports.SessionNotifier = (*SessionNotifier)(nil)

// NewSessionNotifier creates a notifier. Subscriptions start lazily.
func NewSessionNotifier(client redis.UniversalClient, opts NotifierOptions) *SessionNotifier {
	channel := opts.Channel
	if channel == "" {
		channel = "bengkelink:session-events:"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionNotifier{
		client:    client,
		channel:   channel,
		logger:    logger.With("component", "session_notifier"),
		listeners: make(map[string]map[uint64]func(domainauth.SessionEventType)),
	}
}

// Publish announces evt for the scope.
func (n *SessionNotifier) Publish(ctx context.Context, scopeID string, evt domainauth.SessionEventType) error {
	if scopeID == "" {
		return errors.New("scope ID cannot be empty")
	}
	if err := n.client.Publish(ctx, n.channel+scopeID, string(evt)).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe registers fn for the scope's events until the subscription is
// unsubscribed or ctx is done. fn runs on the notifier's dispatch goroutine.
func (n *SessionNotifier) Subscribe(ctx context.Context, scopeID string, fn func(domainauth.SessionEventType)) (ports.Subscription, error) {
	if scopeID == "" {
		return nil, errors.New("scope ID cannot be empty")
	}
	if err := n.ensureStarted(ctx); err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	if n.listeners[scopeID] == nil {
		n.listeners[scopeID] = make(map[uint64]func(domainauth.SessionEventType))
	}
	n.listeners[scopeID][id] = fn
	n.mu.Unlock()

	sub := &subscription{remove: func() { n.remove(scopeID, id) }}
	context.AfterFunc(ctx, sub.Unsubscribe)
	return sub, nil
}

func (n *SessionNotifier) ensureStarted(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pubsub != nil {
		return nil
	}
	// The shared subscription outlives any single caller's context.
	ps := n.client.PSubscribe(context.WithoutCancel(ctx), n.channel+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	n.pubsub = ps
	n.done = make(chan struct{})
	go n.dispatch(ps.Channel(), n.done)
	return nil
}

func (n *SessionNotifier) dispatch(ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		scopeID := strings.TrimPrefix(msg.Channel, n.channel)
		evt := domainauth.SessionEventType(msg.Payload)

		n.mu.Lock()
		fns := make([]func(domainauth.SessionEventType), 0, len(n.listeners[scopeID]))
		for _, fn := range n.listeners[scopeID] {
			fns = append(fns, fn)
		}
		n.mu.Unlock()

		for _, fn := range fns {
			n.deliver(scopeID, evt, fn)
		}
	}
}

func (n *SessionNotifier) deliver(scopeID string, evt domainauth.SessionEventType, fn func(domainauth.SessionEventType)) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("session listener panicked", "scope", scopeID, "event", evt, "panic", r)
		}
	}()
	fn(evt)
}

func (n *SessionNotifier) remove(scopeID string, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners[scopeID], id)
	if len(n.listeners[scopeID]) == 0 {
		delete(n.listeners, scopeID)
	}
}

// Close stops the shared subscription and waits for dispatch to finish.
func (n *SessionNotifier) Close() error {
	n.mu.Lock()
	ps, done := n.pubsub, n.done
	n.pubsub = nil
	n.mu.Unlock()
	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}

type subscription struct {
	once   sync.Once
	remove func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.remove) }
