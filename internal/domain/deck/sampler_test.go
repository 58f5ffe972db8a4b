package deck

import (
	"testing"

	"github.com/phrazzld/arcana/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deterministicRNG returns values from a fixed sequence, modulo n.
type deterministicRNG struct {
	values []int
	idx    int
}

func (r *deterministicRNG) Intn(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

func TestDefaultDeck(t *testing.T) {
	t.Parallel()

	d, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 22, d.Size())

	fool, ok := d.Card(0)
	require.True(t, ok)
	assert.Equal(t, "fool", fool.Key)
	assert.Equal(t, "The Fool", fool.Name("en"))
	assert.NotEmpty(t, fool.Keywords.Upright)
	assert.NotEmpty(t, fool.Keywords.Reversed)

	world, ok := d.Card(21)
	require.True(t, ok)
	assert.Equal(t, "world", world.Key)

	_, ok = d.Card(22)
	assert.False(t, ok)
	assert.Len(t, d.Cards(), 22)
}

func TestParseRejectsGaps(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`[{"id":0,"key":"a"},{"id":2,"key":"b"}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = Parse([]byte(`[]`))
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestDrawCardsDeterministic(t *testing.T) {
	t.Parallel()

	rng := &deterministicRNG{values: []int{0}}
	cards, err := DrawCards(22, 3, rng)
	require.NoError(t, err)

	// Always choosing index 0 leaves the pool in order.
	assert.Equal(t, []domain.DrawnCard{
		{CardID: 0, Orientation: domain.Upright},
		{CardID: 1, Orientation: domain.Upright},
		{CardID: 2, Orientation: domain.Upright},
	}, cards)
}

func TestDrawCardsNeverDuplicates(t *testing.T) {
	t.Parallel()

	s := NewSampler(22, SeededRNG(1, 2))
	for range 500 {
		cards, err := s.DrawCards(3)
		require.NoError(t, err)
		require.Len(t, cards, 3)

		seen := map[int]bool{}
		for _, c := range cards {
			assert.False(t, seen[c.CardID], "duplicate card %d", c.CardID)
			seen[c.CardID] = true
			assert.True(t, c.CardID >= 0 && c.CardID < 22)
			assert.True(t, c.Orientation.Valid())
		}
	}
}

func TestDrawCardsExcludingNeverReturnsExcluded(t *testing.T) {
	t.Parallel()

	s := NewSampler(22, SeededRNG(7, 11))
	excluded := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	for range 500 {
		cards, err := s.DrawCardsExcluding(3, excluded)
		require.NoError(t, err)
		for _, c := range cards {
			assert.GreaterOrEqual(t, c.CardID, 16)
		}
	}
}

func TestDrawCardsExhaustsPool(t *testing.T) {
	t.Parallel()

	s := NewSampler(5, nil)
	cards, err := s.DrawCardsExcluding(3, []int{0, 1})
	require.NoError(t, err)
	ids := []int{cards[0].CardID, cards[1].CardID, cards[2].CardID}
	assert.ElementsMatch(t, []int{2, 3, 4}, ids)
}

func TestDrawCardsInvalidCount(t *testing.T) {
	t.Parallel()

	s := NewSampler(22, nil)
	_, err := s.DrawCards(23)
	assert.ErrorIs(t, err, domain.ErrInvalidCardCount)

	_, err = s.DrawCards(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidCardCount)

	_, err = s.DrawCardsExcluding(3, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19})
	assert.ErrorIs(t, err, domain.ErrInvalidCardCount)

	// Out-of-range and repeated exclusions do not shrink the pool.
	cards, err := s.DrawCardsExcluding(22, []int{-1, 99})
	require.NoError(t, err)
	assert.Len(t, cards, 22)

	cards, err = s.DrawCards(0)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestDrawCardsOrientationUsesRNG(t *testing.T) {
	t.Parallel()

	// Three picks of 0 followed by orientation draws 1, 0, 1.
	rng := &deterministicRNG{values: []int{0, 0, 0, 1, 0, 1}}
	cards, err := DrawCards(22, 3, rng)
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, cards[0].Orientation)
	assert.Equal(t, domain.Upright, cards[1].Orientation)
	assert.Equal(t, domain.Reversed, cards[2].Orientation)
}
