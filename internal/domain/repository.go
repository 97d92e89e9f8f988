package domain

import "context"

// ListingRepository keeps the last full instrument listing per market so it
// can be reused when the upstream listing is unavailable.
// FindListing returns ErrNotFound when nothing has been stored yet.
type ListingRepository interface {
	ReplaceListing(ctx context.Context, market string, instruments []Instrument) error
	FindListing(ctx context.Context, market string) ([]Instrument, error)
}
