package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bengkelink/bengkelink-web/internal/data"
	"github.com/bengkelink/bengkelink-web/internal/domain/promo"
)

type listClaimsOptions struct {
	UserID string
}

func runListClaims(cmdCtx *commandContext, args []string) error {
	opts, err := parseListClaimsFlags(args)
	if err != nil {
		return err
	}
	catalog := promo.DefaultCatalog()
	if path := cmdCtx.Config.Promo.CatalogPath; path != "" {
		f, openErr := os.Open(path)
		if openErr != nil {
			return fmt.Errorf("open promo catalog: %w", openErr)
		}
		catalog, err = promo.LoadCatalog(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("load promo catalog: %w", err)
		}
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		ids, claimErr := data.NewClaimRepo(db).ClaimedPromoIDs(ctx, opts.UserID)
		if claimErr != nil {
			return fmt.Errorf("load claims: %w", claimErr)
		}
		return printClaims(os.Stdout, opts.UserID, ids, catalog)
	})
}

func printClaims(w io.Writer, userID string, ids []int, catalog *promo.Catalog) error {
	if err := writef(w, "Claimed promos for user %s\n\n", userID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return writeln(w, "(no claims)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tTITLE\tCODE\n"); err != nil {
		return err
	}
	for _, id := range ids {
		p, err := catalog.Get(id)
		if err != nil {
			if werr := writef(tw, "%d\t(not in catalog)\t-\n", id); werr != nil {
				return werr
			}
			continue
		}
		if err := writef(tw, "%d\t%s\t%s\n", p.ID, p.Title, p.Code); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func parseListClaimsFlags(args []string) (listClaimsOptions, error) {
	fs := flag.NewFlagSet("list-claims", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listClaimsOptions{}
	fs.StringVar(&opts.UserID, "user-id", "", "User whose claims to show (required)")
	if err := fs.Parse(args); err != nil {
		return listClaimsOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	if opts.UserID == "" {
		return listClaimsOptions{}, errors.New("--user-id is required")
	}
	return opts, nil
}
