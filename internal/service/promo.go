package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/domain/promo"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// PromoServiceOptions groups dependencies for PromoService.
type PromoServiceOptions struct {
	Catalog   *promo.Catalog
	Claims    ports.ClaimRepository
	Evaluator JMESPathEvaluator
	Logger    *slog.Logger
	Now       func() time.Time
}

// PromoView is a promo as seen by one user.
type PromoView struct {
	promo.Promo
	Eligible bool
	Claimed  bool
	Expired  bool
}

// Claimable reports whether the user can claim the promo right now.
func (v PromoView) Claimable() bool { return v.Eligible && !v.Claimed && !v.Expired }

// PromoService evaluates promo eligibility and records claims.
type PromoService struct {
	catalog *promo.Catalog
	claims  ports.ClaimRepository
	jems    JMESPathEvaluator
	logger  *slog.Logger
	now     func() time.Time
}

// NewPromoService constructs a PromoService and validates every eligibility expression in the catalog.
func NewPromoService(opts PromoServiceOptions) (*PromoService, error) {
	if opts.Claims == nil {
		return nil, errors.New("claim repository is required")
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = promo.DefaultCatalog()
	}
	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	for _, p := range catalog.All() {
		if err := jems.Validate(p.Eligibility); err != nil {
			return nil, fmt.Errorf("invalid eligibility for promo %d: %w", p.ID, err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &PromoService{
		catalog: catalog,
		claims:  opts.Claims,
		jems:    jems,
		logger:  logger.With("component", "promo"),
		now:     now,
	}, nil
}

// Eligible evaluates the promo's expression. An empty expression admits everyone;
// anything other than a boolean true result denies.
func (s *PromoService) Eligible(p promo.Promo, facts promo.Facts) (bool, error) {
	if strings.TrimSpace(p.Eligibility) == "" {
		return true, nil
	}
	res, err := s.jems.Evaluate(p.Eligibility, facts.Map())
	if err != nil {
		return false, fmt.Errorf("evaluate eligibility for promo %d: %w", p.ID, err)
	}
	ok, isBool := res.(bool)
	return isBool && ok, nil
}

// List returns every promo with the user's eligibility and claim state.
func (s *PromoService) List(ctx context.Context, user domainauth.User) ([]PromoView, error) {
	if user == nil {
		return nil, apperrors.Validation("user is required")
	}
	promos := s.catalog.All()
	views := make([]PromoView, len(promos))
	var claimed map[int]bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.claims.ClaimedPromoIDs(gctx, user.Account().ID)
		if err != nil {
			return fmt.Errorf("list claimed promos: %w", err)
		}
		claimed = make(map[int]bool, len(ids))
		for _, id := range ids {
			claimed[id] = true
		}
		return nil
	})
	g.Go(func() error {
		facts := promo.FactsFor(user)
		now := s.now()
		for i, p := range promos {
			eligible, err := s.Eligible(p, facts)
			if err != nil {
				return err
			}
			views[i] = PromoView{Promo: p, Eligible: eligible, Expired: p.Expired(now)}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Claimed = claimed[views[i].ID]
	}
	return views, nil
}

// Get returns one promo as seen by the user.
func (s *PromoService) Get(ctx context.Context, user domainauth.User, promoID int) (PromoView, error) {
	if user == nil {
		return PromoView{}, apperrors.Validation("user is required")
	}
	p, err := s.catalog.Get(promoID)
	if err != nil {
		return PromoView{}, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Promo Tidak Ditemukan")
	}
	eligible, err := s.Eligible(p, promo.FactsFor(user))
	if err != nil {
		return PromoView{}, err
	}
	ids, err := s.claims.ClaimedPromoIDs(ctx, user.Account().ID)
	if err != nil {
		return PromoView{}, fmt.Errorf("list claimed promos: %w", err)
	}
	view := PromoView{Promo: p, Eligible: eligible, Expired: p.Expired(s.now())}
	for _, id := range ids {
		if id == p.ID {
			view.Claimed = true
			break
		}
	}
	return view, nil
}

// Claim records the user's claim on an eligible, unexpired promo. A second claim is a conflict.
func (s *PromoService) Claim(ctx context.Context, user domainauth.User, promoID int) (PromoView, error) {
	view, err := s.Get(ctx, user, promoID)
	if err != nil {
		return PromoView{}, err
	}
	switch {
	case view.Claimed:
		return view, apperrors.Conflict("Promo sudah diklaim")
	case view.Expired:
		return view, apperrors.Validation("Promo sudah berakhir")
	case !view.Eligible:
		return view, apperrors.Validation("Anda tidak memenuhi syarat untuk promo ini")
	}

	if err := s.claims.Claim(ctx, user.Account().ID, promoID); err != nil {
		if apperrors.IsConflict(err) {
			view.Claimed = true
			return view, apperrors.Conflict("Promo sudah diklaim")
		}
		return view, fmt.Errorf("claim promo: %w", err)
	}
	s.logger.InfoContext(ctx, "promo claimed", "user_id", user.Account().ID, "promo_id", promoID, "code", view.Code)
	view.Claimed = true
	return view, nil
}
