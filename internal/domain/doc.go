// Package domain contains the core business entities, value objects, and
// domain logic of the application. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
//
// The engines that operate on these entities live in sub-packages:
// deck (card sampling), pattern (spread classification), progression
// (levels, experience and streaks), gating (daily quotas) and rewards
// (milestone unlocks).
package domain
