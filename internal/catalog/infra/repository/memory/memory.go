package memory

import (
	"context"
	"sync"

	"github.com/cdexmarket/cdex/internal/catalog/domain"
	"github.com/google/uuid"
)

// CardRepo is an in-memory implementation of domain.CardRepository.
type CardRepo struct {
	mu    sync.RWMutex
	cards map[uuid.UUID]*domain.Card
}

func NewCardRepo() *CardRepo {
	return &CardRepo{cards: make(map[uuid.UUID]*domain.Card)}
}

func (r *CardRepo) Create(ctx context.Context, card *domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *card
	r.cards[card.ID] = &c
	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	c := *card
	return &c, nil
}

func (r *CardRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*domain.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cards []*domain.Card
	for _, card := range r.cards {
		if card.OwnerID == ownerID {
			c := *card
			cards = append(cards, &c)
		}
	}
	return cards, nil
}
