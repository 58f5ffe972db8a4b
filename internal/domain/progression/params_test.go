package progression

import (
	"testing"

	"github.com/phrazzld/arcana/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestXPRequiredForLevel(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, 100, params.XPRequiredForLevel(1))
	assert.Equal(t, 150, params.XPRequiredForLevel(2))
	assert.Equal(t, 1550, params.XPRequiredForLevel(30))
	assert.Equal(t, 100, params.XPRequiredForLevel(0), "levels below one are treated as one")
}

func TestUnlocksAtLevel(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, []string{"general", "love"}, params.UnlocksAtLevel(1))
	assert.Equal(t, []string{"clarifier"}, params.UnlocksAtLevel(2))
	assert.Equal(t, []string{"money", "deep_reading"}, params.UnlocksAtLevel(5))
	assert.Empty(t, params.UnlocksAtLevel(4))
}

func TestNewParamsOverrides(t *testing.T) {
	t.Parallel()

	params := NewParams(ParamsConfig{
		MaxLevel:           10,
		BaseLevelXP:        200,
		DailyDrawXP:        25,
		StreakBonusCapDays: 3,
	})

	assert.Equal(t, 10, params.MaxLevel)
	assert.Equal(t, 200, params.XPRequiredForLevel(1))
	assert.Equal(t, 250, params.XPRequiredForLevel(2))
	assert.Equal(t, 25, params.BaseXP[domain.XPSourceDailyDraw])
	assert.Equal(t, 50, params.BaseXP[domain.XPSourceSpreadCompletion])
	assert.Equal(t, 3, params.StreakBonusCapDays)

	defaults := NewParams(ParamsConfig{})
	assert.Equal(t, NewDefaultParams(), defaults)
}
