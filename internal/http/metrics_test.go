package httpx

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countedMetric struct {
	name string
	tags map[string]string
}

type countingSink struct {
	mu     sync.Mutex
	counts []countedMetric
}

func (s *countingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, countedMetric{name, tags})
}
func (s *countingSink) Gauge(string, float64, map[string]string) {}
func (s *countingSink) Timing(string, time.Duration, map[string]string) {}

func (s *countingSink) named(name string) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]string
	for _, c := range s.counts {
		if c.name == name {
			out = append(out, c.tags)
		}
	}
	return out
}

func TestMetrics_LoginAndLogout(t *testing.T) {
	sink := &countingSink{}
	p, _ := newTestProvider(t, newDirectory().client)
	b := newBrowser(t, newTestServer(t, p, func(s *RouterServices) { s.Metrics = sink }))

	b.postForm("/auth/login", map[string]string{"email": "ani@example.com", "password": "salah"})
	resp, _ := b.postForm("/auth/login", map[string]string{"email": "ani@example.com", "password": "rahasia123"})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	b.postForm("/auth/logout", nil)

	logins := sink.named("auth.login")
	require.Len(t, logins, 2)
	assert.Equal(t, map[string]string{"role": "customer", "result": "failure", "kind": "provider"}, logins[0])
	assert.Equal(t, map[string]string{"role": "customer", "result": "success"}, logins[1])

	logouts := sink.named("auth.logout")
	require.Len(t, logouts, 1)
	assert.Equal(t, "success", logouts[0]["result"])
}

func TestMetrics_PromoClaimOutcome(t *testing.T) {
	sink := &countingSink{}
	p, _ := newTestProvider(t, signedInClient("customer"))
	srv := newTestServer(t, p, func(s *RouterServices) {
		s.Metrics = sink
		s.Promos = testPromos()
	})
	b := newBrowser(t, srv)

	b.postForm("/promo/1/claim", nil)
	b.postForm("/promo/1/claim", nil)
	b.postForm("/promo/404/claim", nil)

	claims := sink.named("promo.claim")
	require.Len(t, claims, 3)
	assert.Equal(t, "claimed", claims[0]["outcome"])
	assert.Equal(t, "conflict", claims[1]["outcome"])
	assert.Equal(t, "not_found", claims[2]["outcome"])
}
