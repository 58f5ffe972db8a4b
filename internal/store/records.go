package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/pattern"
)

// Records reads and writes typed records through a KV.
type Records struct {
	kv KV
}

// NewRecords creates a Records over kv.
func NewRecords(kv KV) *Records {
	if kv == nil {
		panic("kv cannot be nil")
	}
	return &Records{kv: kv}
}

// KV returns the underlying key-value store.
func (r *Records) KV() KV {
	return r.kv
}

func getRecord[T any](ctx context.Context, kv KV, key, entity string, notFound error) (*T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound
		}
		return nil, NewStoreError(entity, "get", "failed to read "+key, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, NewStoreError(entity, "get", "failed to decode "+key,
			fmt.Errorf("%w: %v", ErrInvalidEntity, err))
	}
	return &v, nil
}

// GetCharacter returns the player's character state.
func (r *Records) GetCharacter(ctx context.Context, playerID uuid.UUID) (*domain.CharacterState, error) {
	return getRecord[domain.CharacterState](ctx, r.kv, CharacterKey(playerID), "character", ErrCharacterNotFound)
}

// GetRewards returns the player's rewards state.
func (r *Records) GetRewards(ctx context.Context, playerID uuid.UUID) (*domain.RewardsState, error) {
	return getRecord[domain.RewardsState](ctx, r.kv, RewardsKey(playerID), "rewards", ErrRewardsNotFound)
}

// GetGating returns the player's gating record for a day.
func (r *Records) GetGating(ctx context.Context, playerID uuid.UUID, dateKey string) (*domain.GatingState, error) {
	return getRecord[domain.GatingState](ctx, r.kv, GatingKey(playerID, dateKey), "gating", ErrGatingNotFound)
}

// GetDraw returns the player's daily draw for a day.
func (r *Records) GetDraw(ctx context.Context, playerID uuid.UUID, dateKey string) (*domain.DailyDraw, error) {
	return getRecord[domain.DailyDraw](ctx, r.kv, DrawKey(playerID, dateKey), "draw", ErrDrawNotFound)
}

// GetSpread returns a spread by ID using the spread index.
func (r *Records) GetSpread(ctx context.Context, playerID, spreadID uuid.UUID) (*domain.SpreadRecord, error) {
	raw, err := r.kv.Get(ctx, SpreadIndexKey(playerID, spreadID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSpreadNotFound
		}
		return nil, NewStoreError("spread", "get", "failed to read spread index", err)
	}
	var dateKey string
	if err := json.Unmarshal(raw, &dateKey); err != nil {
		return nil, NewStoreError("spread", "get", "failed to decode spread index",
			fmt.Errorf("%w: %v", ErrInvalidEntity, err))
	}
	return getRecord[domain.SpreadRecord](ctx, r.kv, SpreadKey(playerID, dateKey, spreadID), "spread", ErrSpreadNotFound)
}

// ListSpreadsByDate returns the spreads created on a day, oldest first.
func (r *Records) ListSpreadsByDate(ctx context.Context, playerID uuid.UUID, dateKey string) ([]*domain.SpreadRecord, error) {
	keys, err := r.kv.ListKeys(ctx, SpreadDatePrefix(playerID, dateKey))
	if err != nil {
		return nil, NewStoreError("spread", "list", "failed to list spreads", err)
	}
	spreads := make([]*domain.SpreadRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := getRecord[domain.SpreadRecord](ctx, r.kv, key, "spread", ErrSpreadNotFound)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		spreads = append(spreads, rec)
	}
	sort.SliceStable(spreads, func(i, j int) bool {
		return spreads[i].CreatedAt.Before(spreads[j].CreatedAt)
	})
	return spreads, nil
}

// AttendanceDates returns the distinct days with a draw or a spread, ascending.
func (r *Records) AttendanceDates(ctx context.Context, playerID uuid.UUID) ([]string, error) {
	drawKeys, err := r.kv.ListKeys(ctx, DrawPrefix(playerID))
	if err != nil {
		return nil, NewStoreError("attendance", "list", "failed to list draws", err)
	}
	spreadKeys, err := r.kv.ListKeys(ctx, SpreadPrefix(playerID))
	if err != nil {
		return nil, NewStoreError("attendance", "list", "failed to list spreads", err)
	}

	dates := make([]string, 0, len(drawKeys)+len(spreadKeys))
	for _, key := range drawKeys {
		if date, ok := DateFromDrawKey(playerID, key); ok {
			dates = append(dates, date)
		}
	}
	for _, key := range spreadKeys {
		if date, ok := DateFromSpreadKey(playerID, key); ok {
			dates = append(dates, date)
		}
	}
	slices.Sort(dates)
	return slices.Compact(dates), nil
}

// DeletePlayer removes every key owned by the player.
func (r *Records) DeletePlayer(ctx context.Context, playerID uuid.UUID) (int, error) {
	n, err := r.kv.RemovePrefix(ctx, PlayerPrefix(playerID))
	if err != nil {
		return 0, NewStoreError("player", "delete", "failed to remove player keys", err)
	}
	return n, nil
}

// Commit writes every entry of the batch atomically.
func (r *Records) Commit(ctx context.Context, b *Batch) error {
	if b.err != nil {
		return b.err
	}
	if len(b.entries) == 0 {
		return nil
	}
	if err := r.kv.SetMany(ctx, b.entries); err != nil {
		return NewStoreError("batch", "commit", fmt.Sprintf("failed to write %d entries", len(b.entries)), err)
	}
	return nil
}

// Batch collects encoded records for a single atomic write. The first
// encoding or validation error is kept and returned by Records.Commit.
type Batch struct {
	entries []Entry
	err     error
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len returns the number of entries in the batch.
func (b *Batch) Len() int {
	return len(b.entries)
}

func (b *Batch) put(entity, key string, v any) *Batch {
	if b.err != nil {
		return b
	}
	raw, err := json.Marshal(v)
	if err != nil {
		b.err = NewStoreError(entity, "put", "failed to encode "+key, fmt.Errorf("%w: %v", ErrInvalidEntity, err))
		return b
	}
	b.entries = append(b.entries, Entry{Key: key, Value: raw})
	return b
}

func (b *Batch) fail(entity, message string, err error) *Batch {
	if b.err == nil {
		b.err = NewStoreError(entity, "put", message, fmt.Errorf("%w: %w", ErrInvalidEntity, err))
	}
	return b
}

// PutCharacter adds a character state.
func (b *Batch) PutCharacter(c *domain.CharacterState) *Batch {
	if c.PlayerID == uuid.Nil {
		return b.fail("character", "player ID cannot be empty", domain.ErrInvalidID)
	}
	return b.put("character", CharacterKey(c.PlayerID), c)
}

// PutRewards adds a rewards state.
func (b *Batch) PutRewards(playerID uuid.UUID, rs *domain.RewardsState) *Batch {
	if !rs.HasSkin(rs.SelectedSkinID) {
		return b.fail("rewards", "selected skin is not unlocked", domain.ErrSkinNotUnlocked)
	}
	return b.put("rewards", RewardsKey(playerID), rs)
}

// PutGating adds a day's gating record.
func (b *Batch) PutGating(playerID uuid.UUID, g *domain.GatingState) *Batch {
	if g.DateKey == "" {
		return b.fail("gating", "date key cannot be empty", ErrInvalidKey)
	}
	return b.put("gating", GatingKey(playerID, g.DateKey), g)
}

// PutDraw adds a daily draw.
func (b *Batch) PutDraw(playerID uuid.UUID, d *domain.DailyDraw) *Batch {
	if d.DateKey == "" {
		return b.fail("draw", "date key cannot be empty", ErrInvalidKey)
	}
	return b.put("draw", DrawKey(playerID, d.DateKey), d)
}

// PutSpread adds a spread record and its index entry. The index value is the
// JSON-encoded date key of the record.
func (b *Batch) PutSpread(rec *domain.SpreadRecord) *Batch {
	if err := CheckSpread(rec); err != nil {
		return b.fail("spread", "spread failed validation", err)
	}
	if rec.DateKey == "" {
		return b.fail("spread", "date key cannot be empty", ErrInvalidKey)
	}
	b.put("spread", SpreadKey(rec.PlayerID, rec.DateKey, rec.ID), rec)
	return b.put("spread", SpreadIndexKey(rec.PlayerID, rec.ID), rec.DateKey)
}

// CheckSpread validates a spread record, including that its stored pattern
// and modifier match its cards and topic.
func CheckSpread(rec *domain.SpreadRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return pattern.Verify(rec)
}
