package ports

import "context"

// ClaimRepository records which promos a user has claimed.
type ClaimRepository interface {
	// Claim records a claim. Claiming the same promo twice is a conflict error.
	Claim(ctx context.Context, userID string, promoID int) error
	ClaimedPromoIDs(ctx context.Context, userID string) ([]int, error)
}
