// Package events carries engine outcomes (experience awards, level-ups,
// reward unlocks, gating decisions, spreads and interpretations) from the
// services to observers such as metrics and audit logging.
//
// Services emit events without knowing which handlers will process them.
// The Dispatcher delivers each event synchronously to the handlers subscribed
// to its type and counts handler failures per event type.
package events
