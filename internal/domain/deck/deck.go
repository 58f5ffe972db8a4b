// Package deck holds the static card deck and the sampler that draws
// distinct cards from it.
package deck

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/phrazzld/arcana/internal/domain"
)

//go:embed data/*.json
var deckFS embed.FS

const majorArcanaFile = "data/major_arcana.json"

// Deck is the immutable set of cards drawn from. Card identifiers are the
// contiguous range [0, Size()).
type Deck struct {
	cards []domain.Card
}

var (
	defaultOnce sync.Once
	defaultDeck *Deck
	defaultErr  error
)

// Default returns the embedded Major Arcana deck.
func Default() (*Deck, error) {
	defaultOnce.Do(func() {
		raw, err := deckFS.ReadFile(majorArcanaFile)
		if err != nil {
			defaultErr = fmt.Errorf("read embedded deck: %w", err)
			return
		}
		defaultDeck, defaultErr = Parse(raw)
	})
	return defaultDeck, defaultErr
}

// Parse decodes a JSON card list. Identifiers must cover [0, n) exactly once.
func Parse(raw []byte) (*Deck, error) {
	var cards []domain.Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("parse deck: %w", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("parse deck: %w", domain.ErrEmptyContent)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	for i, c := range cards {
		if c.ID != i {
			return nil, fmt.Errorf("parse deck: card identifiers must be contiguous from 0, found %d at %d: %w",
				c.ID, i, domain.ErrInvalidFormat)
		}
	}
	return &Deck{cards: cards}, nil
}

// Size returns the number of cards in the deck.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Card returns the card with the given identifier.
func (d *Deck) Card(id int) (domain.Card, bool) {
	if id < 0 || id >= len(d.cards) {
		return domain.Card{}, false
	}
	return d.cards[id], true
}

// Cards returns a copy of every card in identifier order.
func (d *Deck) Cards() []domain.Card {
	out := make([]domain.Card, len(d.cards))
	copy(out, d.cards)
	return out
}
