package postgres

import (
	"context"
	"errors"

	"github.com/cdexmarket/cdex/internal/catalog/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CardRepository implements domain.CardRepository for PostgreSQL.
type CardRepository struct {
	pool *pgxpool.Pool
}

func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return &CardRepository{pool: pool}
}

func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
        INSERT INTO cards (id, owner_id, game, card_name, set_name, condition, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.pool.Exec(ctx, query,
		card.ID,
		card.OwnerID,
		card.Game,
		card.Name,
		card.SetName,
		card.Condition,
		card.CreatedAt,
	)
	return err
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `
        SELECT id, owner_id, game, card_name, set_name, condition, created_at
        FROM cards
        WHERE id = $1
    `
	card := &domain.Card{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&card.ID,
		&card.OwnerID,
		&card.Game,
		&card.Name,
		&card.SetName,
		&card.Condition,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

func (r *CardRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*domain.Card, error) {
	query := `
        SELECT id, owner_id, game, card_name, set_name, condition, created_at
        FROM cards
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card := &domain.Card{}
		err := rows.Scan(
			&card.ID,
			&card.OwnerID,
			&card.Game,
			&card.Name,
			&card.SetName,
			&card.Condition,
			&card.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}
