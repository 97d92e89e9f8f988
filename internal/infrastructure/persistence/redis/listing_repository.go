package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

var _ domain.ListingRepository = (*ListingRepository)(nil)

// storedListing is the JSON value kept under listing:<market>.
type storedListing struct {
	RefreshedAt time.Time           `json:"refreshed_at"`
	Instruments []domain.Instrument `json:"instruments"`
}

// ListingRepository keeps each market's listing as one JSON value so a
// replace is a single atomic SET.
type ListingRepository struct {
	client *redis.Client
	logger *slog.Logger
}

func NewListingRepository(client *redis.Client, logger *slog.Logger) *ListingRepository {
	return &ListingRepository{
		client: client,
		logger: logger,
	}
}

// Ping checks the connection to the Redis server.
func (r *ListingRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// keyForMarket returns the Redis key for a market's listing.
func (r *ListingRepository) keyForMarket(market string) string {
	return fmt.Sprintf("listing:%s", market)
}

func (r *ListingRepository) ReplaceListing(ctx context.Context, market string, instruments []domain.Instrument) error {
	payload, err := json.Marshal(storedListing{
		RefreshedAt: time.Now().UTC(),
		Instruments: instruments,
	})
	if err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}

	if err := r.client.Set(ctx, r.keyForMarket(market), payload, 0).Err(); err != nil {
		r.logger.Error("failed to store listing in redis", "market", market, "error", err)
		return fmt.Errorf("store listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) FindListing(ctx context.Context, market string) ([]domain.Instrument, error) {
	payload, err := r.client.Get(ctx, r.keyForMarket(market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("listing for %s: %w", market, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}

	var stored storedListing
	if err := json.Unmarshal(payload, &stored); err != nil {
		r.logger.Warn("could not decode listing from redis", "market", market, "error", err)
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	r.logger.Debug("listing loaded from redis", "market", market, "refreshed_at", stored.RefreshedAt, "instruments", len(stored.Instruments))
	return stored.Instruments, nil
}
