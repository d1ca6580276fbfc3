package postgres

import (
	"context"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BidRepository implements domain.BidRepository for PostgreSQL. Bids are only
// ever written through ListingRepository.AppendBid; this repository is
// read-only.
type BidRepository struct {
	pool *pgxpool.Pool
}

func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

func (r *BidRepository) GetBidsByListingID(ctx context.Context, listingID uuid.UUID, limit int) ([]*domain.Bid, error) {
	query := `
        SELECT id, listing_id, bidder_id, amount, created_at
        FROM bids
        WHERE listing_id = $1
        ORDER BY created_at DESC
    `
	args := []any{listingID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid := &domain.Bid{}
		err := rows.Scan(
			&bid.ID,
			&bid.ListingID,
			&bid.BidderID,
			&bid.Amount,
			&bid.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bids, nil
}
