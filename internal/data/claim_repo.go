package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// ClaimRepo stores promo claims. The (user_id, promo_id) primary key makes claims one-shot.
type ClaimRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.ClaimRepository = (*ClaimRepo)(nil)

// NewClaimRepo creates a new ClaimRepo with real time provider.
func NewClaimRepo(db *sql.DB) *ClaimRepo {
	return &ClaimRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewClaimRepoWithTimeProvider creates a new ClaimRepo with a custom time provider (useful for tests).
func NewClaimRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ClaimRepo {
	return &ClaimRepo{DB: db, timeProvider: tp}
}

// Claim records the claim; a repeat claim maps to a conflict error.
func (r *ClaimRepo) Claim(ctx context.Context, userID string, promoID int) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO promo_claims (user_id, promo_id, claimed_at) VALUES ($1, $2, $3)`,
		userID, promoID, r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("insert promo claim: %w", err))
	}
	return nil
}

// ClaimedPromoIDs lists the user's claimed promo ids in ascending order.
func (r *ClaimRepo) ClaimedPromoIDs(ctx context.Context, userID string) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT promo_id FROM promo_claims WHERE user_id = $1 ORDER BY promo_id`, userID)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list promo claims: %w", err))
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan promo claim: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promo claims: %w", err)
	}
	return ids, nil
}
