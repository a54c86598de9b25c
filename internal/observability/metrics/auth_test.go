package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	kind  string
	name  string
	value float64
	tags  map[string]string
}

type recordingSink struct {
	mu     sync.Mutex
	points []point
}

func (r *recordingSink) add(p point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

func (r *recordingSink) Count(name string, v int64, tags map[string]string) {
	r.add(point{"c", name, float64(v), tags})
}

func (r *recordingSink) Gauge(name string, v float64, tags map[string]string) {
	r.add(point{"g", name, v, tags})
}

func (r *recordingSink) Timing(name string, v time.Duration, tags map[string]string) {
	r.add(point{"ms", name, float64(v.Milliseconds()), tags})
}

func TestEmitLogin(t *testing.T) {
	sink := &recordingSink{}
	EmitLogin(sink, AuthMetric{Role: "workshop", Kind: "provider", Duration: 20 * time.Millisecond})

	require.Len(t, sink.points, 2)
	assert.Equal(t, "auth.login", sink.points[0].name)
	assert.Equal(t, map[string]string{"role": "workshop", "result": ResultFailure, "kind": "provider"}, sink.points[0].tags)
	assert.Equal(t, "auth.login.duration", sink.points[1].name)
	assert.InDelta(t, 20, sink.points[1].value, 0.001)
	assert.NotContains(t, sink.points[1].tags, "kind")
}

func TestEmitSignup_SuccessOmitsKind(t *testing.T) {
	sink := &recordingSink{}
	EmitSignup(sink, AuthMetric{Role: "customer", Success: true, Kind: "ignored"})

	require.Len(t, sink.points, 1)
	assert.Equal(t, map[string]string{"role": "customer", "result": ResultSuccess}, sink.points[0].tags)
}

func TestEmitLogout(t *testing.T) {
	sink := &recordingSink{}
	EmitLogout(sink, nil)
	EmitLogout(sink, context.DeadlineExceeded)

	require.Len(t, sink.points, 2)
	assert.Equal(t, ResultSuccess, sink.points[0].tags["result"])
	assert.Equal(t, "timeout", sink.points[1].tags["error_class"])
}

func TestEmitPromoClaim(t *testing.T) {
	sink := &recordingSink{}
	EmitPromoClaim(sink, "conflict", errors.New("duplicate"))
	EmitPromoClaim(sink, "error", context.Canceled)

	require.Len(t, sink.points, 2)
	assert.NotContains(t, sink.points[0].tags, "error_class")
	assert.Equal(t, "canceled", sink.points[1].tags["error_class"])
}

func TestEmitScopes(t *testing.T) {
	sink := &recordingSink{}
	EmitScopes(sink, 4, 0)
	EmitScopes(sink, 2, 2)

	require.Len(t, sink.points, 3)
	assert.Equal(t, point{"g", "auth.scopes.mounted", 4, nil}, sink.points[0])
	assert.Equal(t, point{"c", "auth.scopes.swept", 2, nil}, sink.points[2])
}

func TestNilSinkIsNoop(t *testing.T) {
	EmitLogin(nil, AuthMetric{})
	EmitSignup(nil, AuthMetric{})
	EmitLogout(nil, errors.New("x"))
	EmitPromoClaim(nil, "claimed", nil)
	EmitScopes(nil, 1, 1)
}
