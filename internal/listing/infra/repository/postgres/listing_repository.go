package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cdexmarket/cdex/internal/listing/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ListingRepository implements domain.ListingRepository for PostgreSQL.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

const listingColumns = `id, lister_id, card_id, kind, status, price, trade_preference,
       start_price, bid_increment, end_time, current_highest_bid, current_high_bidder_id,
       description, views_count, version, created_at, updated_at`

func scanListing(row pgx.Row) (*domain.Listing, error) {
	l := &domain.Listing{}
	var price, highestBid decimal.NullDecimal
	var highBidder uuid.NullUUID

	err := row.Scan(
		&l.ID,
		&l.ListerID,
		&l.CardID,
		&l.Kind,
		&l.Status,
		&price,
		&l.TradePreference,
		&l.StartPrice,
		&l.BidIncrement,
		&l.EndTime,
		&highestBid,
		&highBidder,
		&l.Description,
		&l.ViewsCount,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if price.Valid {
		l.Price = &price.Decimal
	}
	if highestBid.Valid {
		l.CurrentHighestBid = &highestBid.Decimal
	}
	if highBidder.Valid {
		l.CurrentHighBidderID = &highBidder.UUID
	}

	return l, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	query := `
        INSERT INTO listings (id, lister_id, card_id, kind, status, price, trade_preference,
            start_price, bid_increment, end_time, current_highest_bid, current_high_bidder_id,
            description, views_count, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
    `
	_, err := r.pool.Exec(ctx, query,
		listing.ID,
		listing.ListerID,
		listing.CardID,
		listing.Kind,
		listing.Status,
		listing.Price,
		listing.TradePreference,
		listing.StartPrice,
		listing.BidIncrement,
		listing.EndTime,
		listing.CurrentHighestBid,
		listing.CurrentHighBidderID,
		listing.Description,
		listing.ViewsCount,
		listing.Version,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	return err
}

func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	listing, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (r *ListingRepository) GetActiveListings(ctx context.Context) ([]*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*domain.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

func (r *ListingRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE listings SET views_count = views_count + 1 WHERE id = $1`, id)
	return err
}

// AppendBid writes the bid row and the listing's new leading-bid snapshot in
// one transaction. The snapshot update is guarded by the version the caller
// loaded; if another writer got there first no rows match and nothing is
// persisted, so the leading-bid cache can never point at a bid that does not
// exist.
func (r *ListingRepository) AppendBid(ctx context.Context, listing *domain.Listing, bid *domain.Bid) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("append bid: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
        UPDATE listings
        SET current_highest_bid = $1,
            current_high_bidder_id = $2,
            version = version + 1,
            updated_at = NOW()
        WHERE id = $3 AND version = $4
    `,
		listing.CurrentHighestBid,
		listing.CurrentHighBidderID,
		listing.ID,
		listing.Version,
	)
	if err != nil {
		return fmt.Errorf("append bid: failed to update listing %s: %w", listing.ID, err)
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrConcurrentUpdate
		return err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO bids (id, listing_id, bidder_id, amount, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `,
		bid.ID,
		bid.ListingID,
		bid.BidderID,
		bid.Amount,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append bid: failed to insert bid %s: %w", bid.ID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("append bid: failed to commit transaction: %w", err)
	}

	listing.Version++
	return nil
}
