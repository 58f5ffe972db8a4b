// Package pattern classifies spreads into upright/reversed pattern codes and
// maps topics to their modifier tags.
package pattern

import (
	"fmt"
	"strings"

	"github.com/phrazzld/arcana/internal/domain"
)

// Codes lists every pattern code.
var Codes = []domain.PatternCode{
	domain.PatternUUU, domain.PatternUUR, domain.PatternURU, domain.PatternRUU,
	domain.PatternURR, domain.PatternRUR, domain.PatternRRU, domain.PatternRRR,
}

// modifiers depends on the topic alone; the drawn pattern has no influence.
var modifiers = map[domain.Topic]domain.Modifier{
	domain.TopicGeneral:      domain.ModifierMirror,
	domain.TopicLove:         domain.ModifierSoften,
	domain.TopicCareer:       domain.ModifierAmplify,
	domain.TopicMoney:        domain.ModifierAmplify,
	domain.TopicHealth:       domain.ModifierSoften,
	domain.TopicRelationship: domain.ModifierShadow,
}

// ClassifyPattern maps three orientations, in position order, to a pattern code.
func ClassifyPattern(orientations [domain.SpreadSize]domain.Orientation) domain.PatternCode {
	var b strings.Builder
	for _, o := range orientations {
		if o == domain.Reversed {
			b.WriteByte('R')
		} else {
			b.WriteByte('U')
		}
	}
	return domain.PatternCode(b.String())
}

// Classify is ClassifyPattern over a slice. It rejects anything but three
// valid orientations.
func Classify(orientations []domain.Orientation) (domain.PatternCode, error) {
	if len(orientations) != domain.SpreadSize {
		return "", fmt.Errorf("%w: pattern needs %d orientations, got %d",
			domain.ErrInvalidCardCount, domain.SpreadSize, len(orientations))
	}
	var fixed [domain.SpreadSize]domain.Orientation
	for i, o := range orientations {
		if !o.Valid() {
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidOrientation, o)
		}
		fixed[i] = o
	}
	return ClassifyPattern(fixed), nil
}

// ModifierForTopic returns the fixed modifier tag of a topic.
func ModifierForTopic(topic domain.Topic) (domain.Modifier, error) {
	m, ok := modifiers[topic]
	if !ok {
		return "", domain.NewValidationError("topic", "unknown topic "+string(topic), domain.ErrInvalidTopic)
	}
	return m, nil
}

// Verify checks that the stored pattern and modifier of a record agree with
// its cards and topic.
func Verify(r *domain.SpreadRecord) error {
	code, err := Classify(r.Orientations())
	if err != nil {
		return err
	}
	if code != r.Pattern {
		return fmt.Errorf("%w: stored %s, cards give %s", domain.ErrPatternMismatch, r.Pattern, code)
	}
	if r.FollowUp != nil {
		followUp, err := Classify(r.FollowUp.Orientations())
		if err != nil {
			return err
		}
		if followUp != r.FollowUp.Pattern {
			return fmt.Errorf("%w: follow-up stored %s, cards give %s",
				domain.ErrPatternMismatch, r.FollowUp.Pattern, followUp)
		}
	}
	m, err := ModifierForTopic(r.Topic)
	if err != nil {
		return err
	}
	if m != r.Modifier {
		return fmt.Errorf("%w: modifier %s does not belong to topic %s", domain.ErrPatternMismatch, r.Modifier, r.Topic)
	}
	return nil
}
