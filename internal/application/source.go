package application

import (
	"context"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// Source produces the records of one snapshot group.
//
// Labels is the fixed priority list: records are shown in this order and a
// source-level failure yields one placeholder per label. Fetch returns a
// source-level error when nothing usable was retrieved, otherwise one
// ItemResult per item it found; labels it did not find are omitted.
type Source interface {
	Name() string
	Labels() []string
	Fetch(ctx context.Context) ([]domain.ItemResult, error)
}
