package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/domain/promo"
)

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	out := buf.String()

	assert.Contains(t, out, "Usage: bengkelink-admin")
	assert.Less(t, strings.Index(out, "clear-sessions"), strings.Index(out, "migrate"))
	for name := range commands() {
		assert.Contains(t, out, name)
	}
}

func TestParseClearSessionsFlags(t *testing.T) {
	opts, err := parseClearSessionsFlags([]string{"--user-id", " u-1 ", "--dry-run"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", opts.UserID)
	assert.True(t, opts.DryRun)

	_, err = parseClearSessionsFlags(nil)
	require.Error(t, err)
	_, err = parseClearSessionsFlags([]string{"--all", "--scope", "abc"})
	require.Error(t, err)
}

func TestParseListFlags(t *testing.T) {
	opts, err := parseListSessionsFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.Limit)

	_, err = parseListSessionsFlags([]string{"--limit", "-1"})
	require.Error(t, err)

	_, err = parseListClaimsFlags(nil)
	require.Error(t, err)

	_, err = parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)

	reset, err := parseDBResetFlags([]string{"--yes", "--allow-remote"})
	require.NoError(t, err)
	assert.True(t, reset.Yes)
	assert.True(t, reset.AllowRemote)
	assert.Equal(t, defaultMigrationTimeout, reset.Timeout)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":               false,
		"localhost":      false,
		"127.0.0.1":      false,
		"::1":            false,
		"db.local":       false,
		"10.0.0.5":       true,
		"db.example.com": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestGuardRemoteHostRefusesWithoutFlag(t *testing.T) {
	remote, err := guardRemoteHost("db.example.com", false, "reset")
	assert.True(t, remote)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--allow-remote")

	remote, err = guardRemoteHost("localhost", false, "reset")
	assert.False(t, remote)
	require.NoError(t, err)
}

func TestResetStatementsQuotesUser(t *testing.T) {
	stmts := resetStatements(`bengkel"link`)
	require.Len(t, stmts, 4)
	assert.Equal(t, `GRANT ALL ON SCHEMA public TO "bengkel""link"`, stmts[3])
	assert.Len(t, resetStatements("public"), 3)
}

func TestConfirmAction(t *testing.T) {
	opts := clearSessionsConfirm{clearSessionsOptions{Scope: "abc"}}

	var out bytes.Buffer
	require.NoError(t, confirmAction(strings.NewReader("yes\n"), &out, opts, "delete stored sessions"))
	assert.Contains(t, out.String(), `About to delete stored sessions for scope "abc".`)

	err := confirmAction(strings.NewReader("\n"), &out, opts, "delete stored sessions")
	require.Error(t, err)

	// --yes never skips the prompt for a remote database.
	remote := dbResetConfirmOptions{yes: true, remoteHost: "db.example.com"}
	assert.False(t, remote.IsYes())
	require.Error(t, confirmAction(strings.NewReader(""), &out, remote, "reset database schema"))
}

func TestPrintSessions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []sessionEntry{
		{Scope: "scope-a", Session: domainauth.Session{UserID: "u-1", Email: "budi@bengkelink.com", ExpiresAt: now.Add(time.Hour)}, TTL: 2 * time.Hour},
		{Scope: "scope-b", Session: domainauth.Session{UserID: "u-2", ExpiresAt: now.Add(-time.Minute)}, TTL: -1 * time.Second},
		{Scope: "scope-c", Err: errors.New("bad json")},
	}

	var buf bytes.Buffer
	require.NoError(t, printSessions(&buf, entries, now))
	out := buf.String()
	assert.Contains(t, out, "budi@bengkelink.com")
	assert.Contains(t, out, "valid until 2025-06-01T13:00:00Z")
	assert.Contains(t, out, "expired")
	assert.Contains(t, out, "no expiry")
	assert.Contains(t, out, "error: bad json")
	assert.Contains(t, out, "Total sessions: 3")

	buf.Reset()
	require.NoError(t, printSessions(&buf, nil, now))
	assert.Contains(t, buf.String(), "no sessions found")
}

func TestPrintClaims(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printClaims(&buf, "u-1", []int{1, 999}, promo.DefaultCatalog()))
	out := buf.String()
	assert.Contains(t, out, "NEWUSER50")
	assert.Contains(t, out, "(not in catalog)")

	buf.Reset()
	require.NoError(t, printClaims(&buf, "u-1", nil, promo.DefaultCatalog()))
	assert.Contains(t, buf.String(), "(no claims)")
}
