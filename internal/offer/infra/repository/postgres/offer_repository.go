package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cdexmarket/cdex/internal/offer/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OfferRepository implements domain.OfferRepository for PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// Create inserts the offer and its thread in one transaction, so an offer can
// never exist without its conversation record.
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer, thread *domain.Thread) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create offer: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
        INSERT INTO offers (id, listing_id, buyer_id, amount, is_public, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `,
		offer.ID,
		offer.ListingID,
		offer.BuyerID,
		offer.Amount,
		offer.IsPublic,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create offer: failed to insert offer %s: %w", offer.ID, err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO threads (id, listing_id, offer_id, created_at)
        VALUES ($1, $2, $3, $4)
    `,
		thread.ID,
		thread.ListingID,
		thread.OfferID,
		thread.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create offer: failed to insert thread %s: %w", thread.ID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("create offer: failed to commit transaction: %w", err)
	}
	return nil
}

func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	query := `
        SELECT id, listing_id, buyer_id, amount, is_public, status, created_at, updated_at
        FROM offers
        WHERE id = $1
    `
	offer := &domain.Offer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&offer.ID,
		&offer.ListingID,
		&offer.BuyerID,
		&offer.Amount,
		&offer.IsPublic,
		&offer.Status,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (r *OfferRepository) UpdateStatus(ctx context.Context, offer *domain.Offer) error {
	_, err := r.pool.Exec(ctx, `
        UPDATE offers SET status = $1, updated_at = $2 WHERE id = $3
    `, offer.Status, offer.UpdatedAt, offer.ID)
	return err
}

func (r *OfferRepository) GetByListingID(ctx context.Context, listingID uuid.UUID) ([]*domain.Offer, error) {
	query := `
        SELECT id, listing_id, buyer_id, amount, is_public, status, created_at, updated_at
        FROM offers
        WHERE listing_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		offer := &domain.Offer{}
		err := rows.Scan(
			&offer.ID,
			&offer.ListingID,
			&offer.BuyerID,
			&offer.Amount,
			&offer.IsPublic,
			&offer.Status,
			&offer.CreatedAt,
			&offer.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return offers, nil
}
