package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/gating"
	"github.com/phrazzld/arcana/internal/domain/pattern"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyDrawOncePerDay(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	first, err := svc.DailyDraw(ctx, pid)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "2024-03-30", first.Draw.DateKey)
	assert.Equal(t, first.Draw.Card.CardID, first.Card.ID)
	require.NotNil(t, first.Award)
	// base 20 plus 5% for a one-day streak
	assert.Equal(t, 20, first.Award.Event.Amount)
	assert.Equal(t, 1, first.Award.Event.BonusAmount)
	assert.Equal(t, 21, first.Character.TotalXP)
	assert.Equal(t, 1, first.Character.Streak.Current)

	again, err := svc.DailyDraw(ctx, pid)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Nil(t, again.Award)
	assert.Equal(t, first.Draw.Card, again.Draw.Card)
	assert.Equal(t, 21, again.Character.TotalXP)

	env.advance(24 * time.Hour)
	next, err := svc.DailyDraw(ctx, pid)
	require.NoError(t, err)
	assert.True(t, next.Created)
	assert.Equal(t, "2024-03-31", next.Draw.DateKey)
	assert.Equal(t, 2, next.Character.Streak.Current)
	assert.Equal(t, 2, next.Award.Event.BonusAmount)
	assert.Equal(t, 43, next.Character.TotalXP)

	assert.Equal(t, 2, env.events.count(events.TypeXPAwarded))

	stored, err := svc.GetDailyDraw(ctx, pid, "2024-03-30")
	require.NoError(t, err)
	assert.Equal(t, first.Draw.Card, stored.Draw.Card)

	_, err = svc.GetDailyDraw(ctx, pid, "2024-01-01")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.GetDailyDraw(ctx, pid, "yesterday")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestDailyDrawUnknownPlayer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)

	_, err := env.readings(t, nil, nil).DailyDraw(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestCreateSpreadGating(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	free, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "love", Question: "  will it last?  "})
	require.NoError(t, err)
	rec := free.Spread
	assert.Equal(t, domain.AccessFree, rec.Access)
	assert.Equal(t, gating.KindFree, free.Decision.Kind)
	assert.Equal(t, "will it last?", rec.Question)
	assert.Equal(t, domain.ModifierSoften, rec.Modifier)
	require.Len(t, rec.Cards, domain.SpreadSize)
	assert.NoError(t, pattern.Verify(rec))
	assert.NoError(t, rec.Validate())

	stored, err := svc.GetSpread(ctx, pid, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Cards, stored.Cards)
	assert.Equal(t, rec.Pattern, stored.Pattern)

	_, err = svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.ErrorIs(t, err, ErrAdRequired)
	var gerr *GatingError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, gating.KindAdGated, gerr.Decision.Kind)
	assert.Equal(t, 3, gerr.Decision.Remaining)
	env.advance(time.Minute)

	for i := 0; i < 3; i++ {
		res, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general", AdRewardEarned: true})
		require.NoError(t, err, "ad spread %d", i)
		assert.Equal(t, domain.AccessAdGated, res.Spread.Access)

		_, err = svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general", AdRewardEarned: true})
		if i < 2 {
			assert.ErrorIs(t, err, ErrAdCooldown)
		} else {
			assert.ErrorIs(t, err, ErrQuotaExhausted)
		}
		env.advance(5 * time.Minute)
	}

	_, err = svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general", AdRewardEarned: true})
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	spreads, err := svc.ListSpreads(ctx, pid, "")
	require.NoError(t, err)
	assert.Len(t, spreads, 4)
	assert.Equal(t, rec.ID, spreads[0].ID)

	env.advance(24 * time.Hour)
	res, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.NoError(t, err)
	assert.Equal(t, domain.AccessFree, res.Spread.Access)
	assert.Equal(t, 2, res.Character.Streak.Current)

	assert.Equal(t, 5, env.events.count(events.TypeSpreadCreated))
}

func TestCreateSpreadValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	_, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "career"})
	assert.ErrorIs(t, err, domain.ErrTopicLocked)

	_, err = svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "weather"})
	assert.ErrorIs(t, err, domain.ErrInvalidTopic)

	_, err = svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general", Question: strings.Repeat("?", MaxQuestionLength+1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	env.setLevel(t, pid, 3)
	res, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "career"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModifierAmplify, res.Spread.Modifier)
}

func TestCompleteSpreadAwardsOnce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	created, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.NoError(t, err)

	first, err := svc.CompleteSpread(ctx, pid, created.Spread.ID)
	require.NoError(t, err)
	require.NotNil(t, first.Award)
	assert.Equal(t, domain.XPSourceSpreadCompletion, first.Award.Event.Source)
	assert.Equal(t, 52, first.Award.Event.TotalAmount)
	assert.NotNil(t, first.Spread.XPAwardedAt)

	second, err := svc.CompleteSpread(ctx, pid, created.Spread.ID)
	require.NoError(t, err)
	assert.Nil(t, second.Award)
	assert.Equal(t, 52, second.Character.TotalXP)

	_, err = svc.CompleteSpread(ctx, pid, uuid.New())
	assert.ErrorIs(t, err, ErrSpreadNotFound)
}

func TestCompleteSpreadConcurrentCallsAwardOnce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	created, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		awards int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CompleteSpread(ctx, pid, created.Spread.ID)
			if !assert.NoError(t, err) {
				return
			}
			if res.Award != nil {
				mu.Lock()
				awards++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, awards)
	character, err := env.records.GetCharacter(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, 52, character.TotalXP)
}

func TestAddClarifier(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	created, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.NoError(t, err)
	spreadID := created.Spread.ID

	_, err = svc.AddClarifier(ctx, pid, spreadID, true)
	assert.ErrorIs(t, err, domain.ErrFeatureLocked)

	env.setLevel(t, pid, 2)
	_, err = svc.AddClarifier(ctx, pid, spreadID, false)
	assert.ErrorIs(t, err, ErrAdRequired)

	res, err := svc.AddClarifier(ctx, pid, spreadID, true)
	require.NoError(t, err)
	require.NotNil(t, res.Spread.Clarifier)
	for _, c := range created.Spread.Cards {
		assert.NotEqual(t, c.CardID, res.Spread.Clarifier.CardID)
	}
	assert.Equal(t, created.Spread.Pattern, res.Spread.Pattern)

	env.advance(5 * time.Minute)
	_, err = svc.AddClarifier(ctx, pid, spreadID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadySet)

	g, err := env.records.GetGating(ctx, pid, "2024-03-30")
	require.NoError(t, err)
	assert.Equal(t, 1, g.ClarifierUsedCount)
	assert.True(t, g.FreeSpreadUsed)
}

func TestAddFollowUp(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	created, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.NoError(t, err)
	spreadID := created.Spread.ID

	_, err = svc.AddFollowUp(ctx, pid, spreadID, "and then?")
	assert.ErrorIs(t, err, domain.ErrFeatureLocked)

	env.setLevel(t, pid, 5)
	_, err = svc.AddClarifier(ctx, pid, spreadID, true)
	require.NoError(t, err)

	res, err := svc.AddFollowUp(ctx, pid, spreadID, "and then?")
	require.NoError(t, err)
	followUp := res.Spread.FollowUp
	require.NotNil(t, followUp)
	assert.Equal(t, "and then?", followUp.Question)
	require.Len(t, followUp.Cards, domain.SpreadSize)
	require.NotNil(t, res.Award)
	assert.Equal(t, domain.XPSourceDeepSpread, res.Award.Event.Source)
	assert.NoError(t, pattern.Verify(res.Spread))

	shown := map[int]bool{res.Spread.Clarifier.CardID: true}
	for _, c := range created.Spread.Cards {
		shown[c.CardID] = true
	}
	for _, c := range followUp.Cards {
		assert.False(t, shown[c.CardID], "card %d repeated", c.CardID)
	}

	_, err = svc.AddFollowUp(ctx, pid, spreadID, "")
	assert.ErrorIs(t, err, domain.ErrAlreadySet)
}

func TestSaveReflectionAwardsFirstSaveOnly(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	svc := env.readings(t, nil, nil)
	ctx := context.Background()
	pid := env.register(t)

	created, err := svc.CreateSpread(ctx, pid, CreateSpreadInput{Topic: "general"})
	require.NoError(t, err)
	spreadID := created.Spread.ID

	_, err = svc.SaveReflection(ctx, pid, spreadID, "   ", "")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	first, err := svc.SaveReflection(ctx, pid, spreadID, "felt calm", "calm")
	require.NoError(t, err)
	require.NotNil(t, first.Award)
	assert.Equal(t, domain.XPSourceJournalEntry, first.Award.Event.Source)
	assert.Equal(t, 31, first.Award.Event.TotalAmount)

	env.advance(time.Hour)
	second, err := svc.SaveReflection(ctx, pid, spreadID, "felt calmer", "")
	require.NoError(t, err)
	assert.Nil(t, second.Award)
	assert.Equal(t, "felt calmer", second.Spread.Reflection.Text)
	assert.Empty(t, second.Spread.Reflection.Mood)
	assert.True(t, second.Spread.Reflection.UpdatedAt.After(second.Spread.Reflection.CreatedAt))
	assert.Equal(t, 31, second.Character.TotalXP)
}

func TestListSpreadsRejectsBadDate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testStart)
	pid := env.register(t)

	_, err := env.readings(t, nil, nil).ListSpreads(context.Background(), pid, "03/30/2024")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}
