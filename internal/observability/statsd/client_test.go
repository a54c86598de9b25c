package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"bengkelink", "auth.login", "bengkelink.auth.login"},
		{"", " auth/login ", "auth_login"},
		{"bengkelink", "auth..scopes.", "bengkelink.auth.scopes"},
		{"bengkelink", "a:b|c", "bengkelink.a_b_c"},
		{"bengkelink", "  ", ""},
	}
	for _, tt := range tests {
		if got := metricName(tt.prefix, tt.name); got != tt.want {
			t.Fatalf("metricName(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestLineMergesAndSortsTags(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "bengkelink", tags: cleanTags(map[string]string{"env": "prod", " service ": " web "})}
	got := c.line("auth.login", "1", "c", map[string]string{"result": " success ", "": "ignored", "env": "stage"})
	want := "bengkelink.auth.login:1|c|#env:stage,result:success,service:web"
	if got != want {
		t.Fatalf("line mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := (&Client{}).line("scopes", "3", "g", nil); got != "scopes:3|g" {
		t.Fatalf("untagged line = %q", got)
	}
}

func TestClientSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listener unavailable: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "bengkelink."})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()
	if !client.Enabled() {
		t.Fatal("expected client to be enabled")
	}

	client.Timing("auth.login.duration", 1500*time.Microsecond, map[string]string{"role": "customer"})

	buf := make([]byte, 512)
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read datagram: %v", err)
	}
	if got, want := string(buf[:n]), "bengkelink.auth.login.duration:1.5|ms|#role:customer"; got != want {
		t.Fatalf("datagram = %q, want %q", got, want)
	}
}

func TestClientCloseAndNil(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected disabled after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	// Writes after Close are dropped.
	client.Count("auth.login", 1, nil)

	var nilClient *Client
	nilClient.Count("auth.login", 1, nil)
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabled(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{{Enabled: true, Address: "   "}, {Enabled: false, Address: "127.0.0.1:8125"}} {
		client, err := NewClient(cfg)
		if err != nil {
			t.Fatalf("NewClient error: %v", err)
		}
		if client.Enabled() {
			t.Fatalf("expected disabled client for %+v", cfg)
		}
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
