package interpretation

import (
	"fmt"

	"github.com/phrazzld/arcana/internal/domain"
)

// ClarifierPosition labels the clarifier card in a request.
const ClarifierPosition = "clarifier"

// CardLookup resolves deck cards by identifier. *deck.Deck satisfies it.
type CardLookup interface {
	Card(id int) (domain.Card, bool)
}

// BuildSpreadRequest describes a spread and its clarifier, if any.
func BuildSpreadRequest(cards CardLookup, rec *domain.SpreadRecord, locale string) (Request, error) {
	if rec == nil {
		return Request{}, fmt.Errorf("%w: spread is nil", ErrInvalidRequest)
	}
	locale = NormalizeLocale(locale)

	inputs, err := cardInputs(cards, rec.Cards, locale)
	if err != nil {
		return Request{}, err
	}
	if rec.Clarifier != nil {
		clarifier, err := cardInput(cards, ClarifierPosition, *rec.Clarifier, locale)
		if err != nil {
			return Request{}, err
		}
		inputs = append(inputs, clarifier)
	}

	return Request{
		Kind:     KindSpread,
		Topic:    string(rec.Topic),
		Pattern:  string(rec.Pattern),
		Modifier: string(rec.Modifier),
		Cards:    inputs,
		Question: rec.Question,
		Locale:   locale,
	}, nil
}

// BuildFollowUpRequest describes a spread's follow-up, with the original
// cards passed as context.
func BuildFollowUpRequest(cards CardLookup, rec *domain.SpreadRecord, locale string) (Request, error) {
	if rec == nil || rec.FollowUp == nil {
		return Request{}, fmt.Errorf("%w: spread has no follow-up", ErrInvalidRequest)
	}
	req, err := BuildSpreadRequest(cards, rec, locale)
	if err != nil {
		return Request{}, err
	}

	inputs, err := cardInputs(cards, rec.FollowUp.Cards, req.Locale)
	if err != nil {
		return Request{}, err
	}

	req.Kind = KindFollowUp
	req.PriorCards = req.Cards
	req.Cards = inputs
	req.Pattern = string(rec.FollowUp.Pattern)
	req.Question = rec.FollowUp.Question
	return req, nil
}

func cardInputs(cards CardLookup, spread []domain.SpreadCard, locale string) ([]CardInput, error) {
	inputs := make([]CardInput, 0, len(spread)+1)
	for _, sc := range spread {
		in, err := cardInput(cards, string(sc.Position), sc.DrawnCard, locale)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func cardInput(cards CardLookup, position string, drawn domain.DrawnCard, locale string) (CardInput, error) {
	card, ok := cards.Card(drawn.CardID)
	if !ok {
		return CardInput{}, fmt.Errorf("%w: unknown card %d", ErrInvalidRequest, drawn.CardID)
	}
	return CardInput{
		Position:    position,
		CardID:      card.ID,
		CardName:    card.Name(locale),
		Keywords:    card.Keywords.For(drawn.Orientation),
		Orientation: string(drawn.Orientation),
	}, nil
}
