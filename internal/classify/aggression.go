// aggression.go: the three aggression strategies, evaluated in strict
// precedence. Direct label evidence is the most specific and must not be
// overridden by contextual inference; the posture pair is a geometric proxy
// only and runs last. At most one aggression detection is emitted per image.
package classify

import (
	"fmt"
	"strings"

	"github.com/guardiavista/guardia-go/internal/detection"
)

// personCount summarizes person localizations and their inferred postures.
type personCount struct {
	total    int
	onGround int
	standing int
}

// countPersons classifies each "person" localization by the vertical center
// of its bounding box: below the ground line means upright, above means on
// the ground.
func (c *Classifier) countPersons(objects []detection.ObjectSignal) personCount {
	var pc personCount
	groundLine := c.cfg.Aggression.PostureGroundLine

	for i := range objects {
		if !strings.Contains(strings.ToLower(objects[i].Label), "person") {
			continue
		}
		pc.total++
		if objects[i].Box.CenterY() > groundLine {
			pc.onGround++
		} else {
			pc.standing++
		}
	}
	return pc
}

// classifyAggression returns at most one aggression detection, chosen by
// strategy precedence: direct, then contextual, then posture pair.
func (c *Classifier) classifyAggression(sig detection.Signals) *detection.Detection {
	persons := c.countPersons(sig.Objects)

	if d := c.aggressionDirect(sig.Labels); d != nil {
		return d
	}
	if d := c.aggressionContextual(sig.Labels, persons); d != nil {
		return d
	}
	return c.aggressionPosturePair(persons)
}

// aggressionDirect scans the scene labels for terms that name violence
// outright. The best-scoring match above the threshold wins and its score
// becomes the detection confidence.
func (c *Classifier) aggressionDirect(labels []detection.LabelSignal) *detection.Detection {
	var (
		bestScore float64
		bestLabel string
	)

	for i := range labels {
		l := &labels[i]
		if l.Score < c.cfg.Aggression.DirectThreshold {
			continue
		}
		if aggressionDirectVocabulary.Contains(l.Label) && l.Score > bestScore {
			bestScore = l.Score
			bestLabel = l.Label
		}
	}

	if bestLabel == "" {
		return nil
	}
	return &detection.Detection{
		Type:       detection.TypeAggression,
		Label:      bestLabel,
		Confidence: bestScore,
	}
}

// aggressionContextual infers conflict from weak evidence: it requires
// multiple persons in frame, then accumulates action/tension labels at full
// weight and posture labels at reduced weight. Enough qualifying labels
// together raise a capped confidence above their average score.
func (c *Classifier) aggressionContextual(labels []detection.LabelSignal, persons personCount) *detection.Detection {
	agg := c.cfg.Aggression
	if persons.total < agg.ContextMinPersons {
		return nil
	}

	var (
		matched []string
		total   float64
	)

	for i := range labels {
		l := &labels[i]
		if l.Score < agg.ContextThreshold {
			continue
		}
		// A label can qualify under both tables and then counts twice,
		// once at full weight and once at posture weight.
		if actionTensionVocabulary.Contains(l.Label) {
			matched = append(matched, l.Label)
			total += l.Score
		}
		if postureVocabulary.Contains(l.Label) {
			matched = append(matched, l.Label)
			total += l.Score * agg.PostureLabelWeight
		}
	}

	if len(matched) < agg.ContextMinLabels {
		return nil
	}

	confidence := total/float64(len(matched)) + agg.ContextScoreBonus
	if confidence > agg.ContextCeiling {
		confidence = agg.ContextCeiling
	}

	shown := matched
	if len(shown) > 3 {
		shown = shown[:3]
	}

	return &detection.Detection{
		Type:       detection.TypeAggression,
		Label:      fmt.Sprintf("contextual conflict (%s)", strings.Join(shown, ", ")),
		Confidence: confidence,
	}
}

// aggressionPosturePair fires when at least one person is on the ground
// while another stands, a strong indicator of an assault in progress. The
// confidence is fixed: the evidence is purely geometric.
func (c *Classifier) aggressionPosturePair(persons personCount) *detection.Detection {
	if persons.onGround < 1 || persons.standing < 1 {
		return nil
	}
	return &detection.Detection{
		Type:       detection.TypeAggression,
		Label:      "person on ground with another person standing",
		Confidence: c.cfg.Aggression.PostureConfidence,
	}
}
