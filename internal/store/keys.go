package store

import (
	"strings"

	"github.com/google/uuid"
)

const (
	playerRoot         = "player/"
	characterSegment   = "character"
	rewardsSegment     = "rewards"
	gatingSegment      = "gating/"
	drawSegment        = "draw/"
	spreadSegment      = "spread/"
	spreadIndexSegment = "spread-index/"
)

// PlayerPrefix is the root of every key owned by a player.
func PlayerPrefix(playerID uuid.UUID) string {
	return playerRoot + playerID.String() + "/"
}

// CharacterKey locates a player's character state.
func CharacterKey(playerID uuid.UUID) string {
	return PlayerPrefix(playerID) + characterSegment
}

// RewardsKey locates a player's rewards state.
func RewardsKey(playerID uuid.UUID) string {
	return PlayerPrefix(playerID) + rewardsSegment
}

// GatingKey locates a player's gating record for a day.
func GatingKey(playerID uuid.UUID, dateKey string) string {
	return PlayerPrefix(playerID) + gatingSegment + dateKey
}

// DrawPrefix is the parent of every daily draw key.
func DrawPrefix(playerID uuid.UUID) string {
	return PlayerPrefix(playerID) + drawSegment
}

// DrawKey locates a player's daily draw for a day.
func DrawKey(playerID uuid.UUID, dateKey string) string {
	return DrawPrefix(playerID) + dateKey
}

// SpreadPrefix is the parent of every spread key.
func SpreadPrefix(playerID uuid.UUID) string {
	return PlayerPrefix(playerID) + spreadSegment
}

// SpreadDatePrefix is the parent of the spreads created on a day.
func SpreadDatePrefix(playerID uuid.UUID, dateKey string) string {
	return SpreadPrefix(playerID) + dateKey + "/"
}

// SpreadKey locates a spread record.
func SpreadKey(playerID uuid.UUID, dateKey string, spreadID uuid.UUID) string {
	return SpreadDatePrefix(playerID, dateKey) + spreadID.String()
}

// SpreadIndexPrefix is the parent of every spread index key.
func SpreadIndexPrefix(playerID uuid.UUID) string {
	return PlayerPrefix(playerID) + spreadIndexSegment
}

// SpreadIndexKey maps a spread ID to the day it was created on.
func SpreadIndexKey(playerID uuid.UUID, spreadID uuid.UUID) string {
	return SpreadIndexPrefix(playerID) + spreadID.String()
}

// DateFromDrawKey extracts the day from a draw key.
func DateFromDrawKey(playerID uuid.UUID, key string) (string, bool) {
	date, ok := strings.CutPrefix(key, DrawPrefix(playerID))
	return date, ok && date != "" && !strings.Contains(date, "/")
}

// DateFromSpreadKey extracts the day from a spread key.
func DateFromSpreadKey(playerID uuid.UUID, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, SpreadPrefix(playerID))
	if !ok {
		return "", false
	}
	date, id, found := strings.Cut(rest, "/")
	return date, found && date != "" && id != ""
}
