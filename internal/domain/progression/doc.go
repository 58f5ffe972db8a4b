// Package progression implements the character progression engine: experience
// awards with streak bonuses, cascading level-ups, daily streak tracking and
// the level-derived facts (evolution stage, topic and feature unlocks).
//
// The calculations are pure functions over domain.CharacterState. The Service
// interface wraps them with input validation; persistence is the caller's job.
package progression
