package devauth

import (
	"context"
	"slices"
	"sync"

	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// ClaimStore is an in-memory ports.ClaimRepository used when no database is configured.
type ClaimStore struct {
	mu     sync.Mutex
	claims map[string][]int
}

var _ ports.ClaimRepository = (*ClaimStore)(nil)

// NewClaimStore creates an empty store.
func NewClaimStore() *ClaimStore {
	return &ClaimStore{claims: make(map[string][]int)}
}

func (s *ClaimStore) Claim(_ context.Context, userID string, promoID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.claims[userID], promoID) {
		return apperrors.Conflict("promo already claimed")
	}
	s.claims[userID] = append(s.claims[userID], promoID)
	return nil
}

func (s *ClaimStore) ClaimedPromoIDs(_ context.Context, userID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(slices.Values(s.claims[userID])), nil
}
