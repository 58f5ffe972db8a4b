// Package snapshot exports and imports one player's keyspace as a
// zstd-compressed JSON document. Values are stored as the raw JSON records
// the store already holds, so a snapshot is readable once decompressed.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/phrazzld/arcana/internal/calendar"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/store"
)

// FormatVersion is written into every snapshot and checked on import.
const FormatVersion = 1

var (
	// ErrEmptyPlayer is returned when exporting a player with no keys.
	ErrEmptyPlayer = errors.New("player has no stored records")

	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrForeignKey is returned when a snapshot holds a key outside its player's namespace.
	ErrForeignKey = errors.New("snapshot key outside player namespace")

	// ErrInvalidRecord is returned when a snapshot value does not decode to a
	// record consistent with its key.
	ErrInvalidRecord = errors.New("invalid snapshot record")
)

// Entry is one stored record.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Snapshot is the decoded document.
type Snapshot struct {
	Version    int       `json:"version"`
	PlayerID   uuid.UUID `json:"player_id"`
	ExportedAt time.Time `json:"exported_at"`
	Entries    []Entry   `json:"entries"`
}

// Codec compresses and decompresses snapshot documents.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a Codec. Close releases its decoder.
func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Close releases the codec's resources.
func (c *Codec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

// Encode marshals and compresses snap.
func (c *Codec) Encode(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode decompresses and unmarshals data.
func (c *Codec) Decode(data []byte) (*Snapshot, error) {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	return &snap, nil
}

// Export reads every key under the player's namespace.
func Export(ctx context.Context, kv store.KV, playerID uuid.UUID, now time.Time) (*Snapshot, error) {
	keys, err := kv.ListKeys(ctx, store.PlayerPrefix(playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list player keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, ErrEmptyPlayer
	}

	snap := &Snapshot{
		Version:    FormatVersion,
		PlayerID:   playerID,
		ExportedAt: now.UTC(),
		Entries:    make([]Entry, 0, len(keys)),
	}
	for _, key := range keys {
		value, err := kv.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			// removed between list and read
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		snap.Entries = append(snap.Entries, Entry{Key: key, Value: value})
	}
	return snap, nil
}

// Import writes every entry of snap in one atomic batch. Existing records
// with the same keys are replaced; other keys of the player are left alone.
func Import(ctx context.Context, kv store.KV, snap *Snapshot) (int, error) {
	prefix := store.PlayerPrefix(snap.PlayerID)
	entries := make([]store.Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if !strings.HasPrefix(e.Key, prefix) {
			return 0, fmt.Errorf("%w: %s", ErrForeignKey, e.Key)
		}
		if !json.Valid(e.Value) {
			return 0, fmt.Errorf("%w: %s is not JSON", ErrInvalidRecord, e.Key)
		}
		if err := checkEntry(snap.PlayerID, e); err != nil {
			return 0, err
		}
		entries = append(entries, store.Entry{Key: e.Key, Value: e.Value})
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := kv.SetMany(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to write snapshot entries: %w", err)
	}
	return len(entries), nil
}

// checkEntry applies the write-path checks of the store to the records
// that carry derived data: spreads and their index entries.
func checkEntry(playerID uuid.UUID, e Entry) error {
	if _, ok := store.DateFromSpreadKey(playerID, e.Key); ok {
		var rec domain.SpreadRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, e.Key, err)
		}
		if rec.PlayerID != playerID || store.SpreadKey(rec.PlayerID, rec.DateKey, rec.ID) != e.Key {
			return fmt.Errorf("%w: %s does not match its spread", ErrInvalidRecord, e.Key)
		}
		if err := store.CheckSpread(&rec); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, e.Key, err)
		}
		return nil
	}
	if strings.HasPrefix(e.Key, store.SpreadIndexPrefix(playerID)) {
		var dateKey string
		if err := json.Unmarshal(e.Value, &dateKey); err != nil || !calendar.IsDateKey(dateKey) {
			return fmt.Errorf("%w: %s is not a date key", ErrInvalidRecord, e.Key)
		}
	}
	return nil
}

// WriteFile encodes snap and replaces fileName atomically through a
// temporary file in the same directory.
func (c *Codec) WriteFile(fileName string, snap *Snapshot) error {
	data, err := c.Encode(snap)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return err
	}
	if err = file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return err
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}
	return os.Rename(tmpFile, fileName)
}

// ReadFile loads and decodes a snapshot file.
func (c *Codec) ReadFile(fileName string) (*Snapshot, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}
