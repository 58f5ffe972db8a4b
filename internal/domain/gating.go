package domain

import "time"

// GatingState holds the usage counters of one calendar day.
type GatingState struct {
	DateKey               string    `json:"date_key"`
	FreeSpreadUsed        bool      `json:"free_spread_used"`
	ClarifierUsedCount    int       `json:"clarifier_used_count"`
	AnotherTopicUsedCount int       `json:"another_topic_used_count"`
	LastAdAt              time.Time `json:"last_ad_at"`
}

// NewGatingState returns the implicit all-zero record for a day.
func NewGatingState(dateKey string) *GatingState {
	return &GatingState{DateKey: dateKey}
}
