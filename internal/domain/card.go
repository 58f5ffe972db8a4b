package domain

// Orientation represents the orientation of a drawn card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Valid reports whether o is one of the two orientations.
func (o Orientation) Valid() bool {
	return o == Upright || o == Reversed
}

// OrientedText holds one value per orientation.
type OrientedText[T any] struct {
	Upright  T `json:"upright"`
	Reversed T `json:"reversed"`
}

// For returns the value for orientation o.
func (t OrientedText[T]) For(o Orientation) T {
	if o == Reversed {
		return t.Reversed
	}
	return t.Upright
}

// Card is an immutable entry of the static deck.
type Card struct {
	ID        int                    `json:"id"`
	Key       string                 `json:"key"`
	Names     map[string]string      `json:"names"`
	Keywords  OrientedText[[]string] `json:"keywords"`
	Meanings  OrientedText[string]   `json:"meanings"`
	Talisman  string                 `json:"talisman"`
	ActionTip string                 `json:"action_tip"`
}

// Name returns the card name for lang, falling back to English.
func (c Card) Name(lang string) string {
	if name, ok := c.Names[lang]; ok && name != "" {
		return name
	}
	return c.Names["en"]
}

// DrawnCard binds a card identifier to the orientation it was drawn in.
type DrawnCard struct {
	CardID      int         `json:"card_id"`
	Orientation Orientation `json:"orientation"`
}

// Position labels a slot in a three-card spread.
type Position string

const (
	PositionPast    Position = "past"
	PositionPresent Position = "present"
	PositionFuture  Position = "future"
)

// SpreadPositions lists the position labels in spread order.
var SpreadPositions = [SpreadSize]Position{PositionPast, PositionPresent, PositionFuture}

// SpreadSize is the number of cards in every spread.
const SpreadSize = 3
