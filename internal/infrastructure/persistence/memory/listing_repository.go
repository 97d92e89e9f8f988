package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// ListingRepository keeps listings for the life of the process.
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[string][]domain.Instrument
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		listings: make(map[string][]domain.Instrument),
	}
}

func (r *ListingRepository) ReplaceListing(ctx context.Context, market string, instruments []domain.Instrument) error {
	stored := make([]domain.Instrument, len(instruments))
	copy(stored, instruments)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.listings[market] = stored
	return nil
}

func (r *ListingRepository) FindListing(ctx context.Context, market string) ([]domain.Instrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.listings[market]
	if !exists {
		return nil, fmt.Errorf("listing for %s: %w", market, domain.ErrNotFound)
	}

	instruments := make([]domain.Instrument, len(stored))
	copy(instruments, stored)
	return instruments, nil
}
