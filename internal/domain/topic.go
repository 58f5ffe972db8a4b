package domain

import "strings"

// Topic is the subject a spread is asked about.
type Topic string

const (
	TopicGeneral      Topic = "general"
	TopicLove         Topic = "love"
	TopicCareer       Topic = "career"
	TopicMoney        Topic = "money"
	TopicHealth       Topic = "health"
	TopicRelationship Topic = "relationship"
)

// Topics returns every topic in display order.
func Topics() []Topic {
	return []Topic{TopicGeneral, TopicLove, TopicCareer, TopicMoney, TopicHealth, TopicRelationship}
}

// ParseTopic converts s into a Topic.
func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Topics() {
		if t == known {
			return t, nil
		}
	}
	return "", NewValidationError("topic", "unknown topic "+s, ErrInvalidTopic)
}

// Feature names a level-gated capability.
type Feature string

const (
	FeatureClarifier   Feature = "clarifier"
	FeatureDeepReading Feature = "deep_reading"
)

// PatternCode is the upright/reversed classification of a spread, e.g. "URU".
type PatternCode string

const (
	PatternUUU PatternCode = "UUU"
	PatternUUR PatternCode = "UUR"
	PatternURU PatternCode = "URU"
	PatternRUU PatternCode = "RUU"
	PatternURR PatternCode = "URR"
	PatternRUR PatternCode = "RUR"
	PatternRRU PatternCode = "RRU"
	PatternRRR PatternCode = "RRR"
)

// Modifier is the interpretive tag attached to a spread by its topic.
type Modifier string

const (
	ModifierMirror  Modifier = "mirror"
	ModifierSoften  Modifier = "soften"
	ModifierAmplify Modifier = "amplify"
	ModifierShadow  Modifier = "shadow"
)
