package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// Pub/sub channels are shared across Redis databases, so each test uses its own channel.
func newTestNotifier(t *testing.T) *SessionNotifier {
	t.Helper()
	client := setupTestRedis(t)
	n := NewSessionNotifier(client, NotifierOptions{Channel: "test:" + t.Name() + ":"})
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestSessionNotifier_DeliversToScope(t *testing.T) {
	n := newTestNotifier(t)
	ctx := context.Background()

	got := make(chan domainauth.SessionEventType, 4)
	other := make(chan domainauth.SessionEventType, 4)
	_, err := n.Subscribe(ctx, "scope-a", func(e domainauth.SessionEventType) { got <- e })
	require.NoError(t, err)
	_, err = n.Subscribe(ctx, "scope-b", func(e domainauth.SessionEventType) { other <- e })
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, "scope-a", domainauth.EventSignedIn))

	select {
	case e := <-got:
		assert.Equal(t, domainauth.EventSignedIn, e)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	select {
	case e := <-other:
		t.Fatalf("unexpected event for other scope: %s", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSessionNotifier_Unsubscribe(t *testing.T) {
	n := newTestNotifier(t)
	ctx := context.Background()

	got := make(chan domainauth.SessionEventType, 4)
	sub, err := n.Subscribe(ctx, "scope-u", func(e domainauth.SessionEventType) { got <- e })
	require.NoError(t, err)
	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, n.Publish(ctx, "scope-u", domainauth.EventSignedOut))
	select {
	case e := <-got:
		t.Fatalf("unexpected event after unsubscribe: %s", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionNotifier_ContextEndsSubscription(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := n.Subscribe(ctx, "scope-c", func(domainauth.SessionEventType) {})
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return len(n.listeners["scope-c"]) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSessionNotifier_RejectsEmptyScope(t *testing.T) {
	n := NewSessionNotifier(nil, NotifierOptions{})
	require.Error(t, n.Publish(context.Background(), "", domainauth.EventSignedIn))
	_, err := n.Subscribe(context.Background(), "", func(domainauth.SessionEventType) {})
	require.Error(t, err)
	require.NoError(t, n.Close())
}
