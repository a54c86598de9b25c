package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bengkelink/bengkelink-web/internal/bootstrap"
	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

const scanBatch = 100

type listSessionsOptions struct {
	UserID string
	Limit  int
}

type clearSessionsOptions struct {
	UserID string
	Scope  string
	All    bool
	DryRun bool
	Yes    bool
}

type sessionEntry struct {
	Scope   string
	Key     string
	Session domainauth.Session
	TTL     time.Duration
	Err     error
}

func sessionPrefix(cmdCtx *commandContext) string {
	return cmdCtx.Config.Redis.KeyPrefix + "session:"
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		entries, scanErr := scanSessions(ctx, client, sessionPrefix(cmdCtx), opts.UserID, opts.Limit)
		if scanErr != nil {
			return scanErr
		}
		return printSessions(os.Stdout, entries, time.Now())
	})
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(os.Stdin, os.Stdout, clearSessionsConfirm{opts}, "delete stored sessions"); confirmErr != nil {
		return confirmErr
	}

	prefix := sessionPrefix(cmdCtx)
	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		var keys []string
		if opts.Scope != "" {
			keys = []string{prefix + opts.Scope}
		} else {
			entries, scanErr := scanSessions(ctx, client, prefix, opts.UserID, 0)
			if scanErr != nil {
				return scanErr
			}
			for _, e := range entries {
				keys = append(keys, e.Key)
			}
		}

		if opts.DryRun {
			for _, k := range keys {
				if werr := writeln(os.Stdout, "  would delete", k); werr != nil {
					return werr
				}
			}
			return writef(os.Stdout, "Dry run: %d session(s) matched\n", len(keys))
		}

		var deleted int64
		for start := 0; start < len(keys); start += scanBatch {
			n, delErr := client.Del(ctx, keys[start:min(start+scanBatch, len(keys))]...).Result()
			if delErr != nil {
				return fmt.Errorf("redis del: %w", delErr)
			}
			deleted += n
		}
		cmdCtx.Logger.Info("clear sessions complete", "deleted", deleted)
		return nil
	})
}

func withRedis(cmdCtx *commandContext, f func(context.Context, redis.UniversalClient) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()
	return f(ctx, client)
}

// scanSessions walks every session key under prefix. A userID filter decodes each session;
// limit 0 means no limit.
func scanSessions(ctx context.Context, client redis.UniversalClient, prefix, userID string, limit int) ([]sessionEntry, error) {
	var out []sessionEntry
	iter := client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry := sessionEntry{Key: key, Scope: strings.TrimPrefix(key, prefix)}

		raw, err := client.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			entry.Err = err
		default:
			entry.Err = json.Unmarshal(raw, &entry.Session)
		}
		if userID != "" && entry.Session.UserID != userID {
			continue
		}
		if ttl, ttlErr := client.TTL(ctx, key).Result(); ttlErr == nil {
			entry.TTL = ttl
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

func printSessions(w io.Writer, entries []sessionEntry, now time.Time) error {
	if len(entries) == 0 {
		return writeln(w, "(no sessions found)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "SCOPE\tUSER\tEMAIL\tACCESS TOKEN\tTTL\n"); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Err != nil {
			if err := writef(tw, "%s\t-\t-\terror: %v\t%s\n", e.Scope, e.Err, renderTTL(e.TTL)); err != nil {
				return err
			}
			continue
		}
		state := "valid until " + e.Session.ExpiresAt.UTC().Format(time.RFC3339)
		if e.Session.Expired(now) {
			state = "expired"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", e.Scope, e.Session.UserID, e.Session.Email, state, renderTTL(e.TTL)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\nTotal sessions: %d\n", len(entries))
}

func renderTTL(d time.Duration) string {
	switch d {
	case -1 * time.Second:
		return "no expiry"
	case -2 * time.Second:
		return "key missing"
	default:
		return d.Round(time.Second).String()
	}
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSessionsOptions{}
	fs.StringVar(&opts.UserID, "user-id", "", "Only show sessions of this user")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum sessions to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	if opts.Limit < 0 {
		return listSessionsOptions{}, errors.New("--limit must be zero or positive")
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	return opts, nil
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearSessionsOptions{}
	fs.StringVar(&opts.UserID, "user-id", "", "Delete every session of this user")
	fs.StringVar(&opts.Scope, "scope", "", "Delete the session of one client scope")
	fs.BoolVar(&opts.All, "all", false, "Delete every stored session")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Show what would be deleted")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	opts.Scope = strings.TrimSpace(opts.Scope)

	selected := 0
	for _, set := range []bool{opts.UserID != "", opts.Scope != "", opts.All} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return clearSessionsOptions{}, errors.New("exactly one of --user-id, --scope or --all is required")
	}
	return opts, nil
}

type clearSessionsConfirm struct {
	opts clearSessionsOptions
}

func (c clearSessionsConfirm) IsDryRun() bool { return c.opts.DryRun }
func (c clearSessionsConfirm) IsYes() bool    { return c.opts.Yes }
func (c clearSessionsConfirm) GetWarning() string {
	if c.opts.All {
		return "WARNING: this signs out every user on every device."
	}
	return "WARNING: matching users are signed out on their next request."
}

func (c clearSessionsConfirm) GetTarget() string {
	switch {
	case c.opts.UserID != "":
		return fmt.Sprintf("user %q", c.opts.UserID)
	case c.opts.Scope != "":
		return fmt.Sprintf("scope %q", c.opts.Scope)
	default:
		return ""
	}
}
