// Package metrics defines the metrics the auth and promo flows emit.
package metrics

import (
	"time"

	obserrors "github.com/bengkelink/bengkelink-web/internal/observability/errors"
	"github.com/bengkelink/bengkelink-web/internal/observability/statsd"
)

// Result tag values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AuthMetric describes one login or signup attempt.
type AuthMetric struct {
	Role     string
	Success  bool
	Kind     string // failure kind; empty on success
	Duration time.Duration
}

// EmitLogin records a login attempt.
func EmitLogin(sink statsd.Sink, m AuthMetric) { emitAuth(sink, "auth.login", m) }

// EmitSignup records a signup attempt.
func EmitSignup(sink statsd.Sink, m AuthMetric) { emitAuth(sink, "auth.signup", m) }

func emitAuth(sink statsd.Sink, name string, m AuthMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"role": m.Role, "result": result(m.Success)}
	if !m.Success && m.Kind != "" {
		tags["kind"] = m.Kind
	}
	sink.Count(name, 1, tags)
	if m.Duration > 0 {
		sink.Timing(name+".duration", m.Duration, map[string]string{"role": m.Role, "result": tags["result"]})
	}
}

// EmitLogout records a sign-out; a failed remote sign-out still clears the scope locally.
func EmitLogout(sink statsd.Sink, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": result(err == nil)}
	if err != nil {
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("auth.logout", 1, tags)
}

// EmitPromoClaim records a claim attempt. Outcome is a short reason such as
// "claimed", "conflict" or "not_found".
func EmitPromoClaim(sink statsd.Sink, outcome string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	if err != nil && outcome == "error" {
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("promo.claim", 1, tags)
}

// EmitScopes reports the mounted scope count and how many idle scopes a sweep removed.
func EmitScopes(sink statsd.Sink, mounted, swept int) {
	if sink == nil {
		return
	}
	sink.Gauge("auth.scopes.mounted", float64(mounted), nil)
	if swept > 0 {
		sink.Count("auth.scopes.swept", int64(swept), nil)
	}
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
