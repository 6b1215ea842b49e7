// Package classify fuses raw perception signals from all extractors into
// typed, scored Detections. Each category rule runs independently against
// the signal union, so a single image may yield detections of several types
// at once.
package classify

import (
	"fmt"
	"log/slog"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/detection"
	"github.com/guardiavista/guardia-go/internal/logging"
)

// Classifier applies the per-category fusion rules. It is stateless after
// construction and safe for concurrent use.
type Classifier struct {
	cfg conf.ClassifierSettings
	log *slog.Logger
}

// New creates a Classifier with the given thresholds.
func New(cfg conf.ClassifierSettings) *Classifier {
	return &Classifier{
		cfg: cfg,
		log: logging.ForService("classify"),
	}
}

// Classify runs all category rules against the signal union for one image.
// fireLabelThreshold is the minimum scene-label score for the label-based
// fire strategy; still-image and live-camera call sites pass different
// values deliberately. A non-positive value falls back to the still-image
// threshold.
func (c *Classifier) Classify(sig detection.Signals, fireLabelThreshold float64) []detection.Detection {
	if fireLabelThreshold <= 0 {
		fireLabelThreshold = c.cfg.FireLabelThreshold
	}

	var detections []detection.Detection

	detections = append(detections, c.classifyObjects(sig.Objects)...)
	detections = append(detections, c.classifyFire(sig, fireLabelThreshold)...)
	if d := c.classifyAggression(sig); d != nil {
		detections = append(detections, *d)
	}

	return detections
}

// classifyObjects matches localized objects against the danger and vehicle
// vocabularies. The first vocabulary term contained in an object label wins;
// there is no scoring across multiple matching terms.
func (c *Classifier) classifyObjects(objects []detection.ObjectSignal) []detection.Detection {
	var out []detection.Detection

	for i := range objects {
		obj := &objects[i]

		if _, ok := dangerVocabulary.Match(obj.Label); ok && obj.Score >= c.cfg.WeaponThreshold {
			box := obj.Box
			out = append(out, detection.Detection{
				Type:       detection.TypeWeapon,
				Label:      obj.Label,
				Confidence: obj.Score,
				Box:        &box,
			})
		}

		if _, ok := vehicleVocabulary.Match(obj.Label); ok && obj.Score >= c.cfg.VehicleThreshold {
			box := obj.Box
			out = append(out, detection.Detection{
				Type:       detection.TypeVehicle,
				Label:      obj.Label,
				Confidence: obj.Score,
				Box:        &box,
			})
		}
	}

	return out
}

// classifyFire evaluates the two independent fire strategies. Neither
// dominates the other: the color segmenter and the scene labels may both
// fire, producing two separate detections for the same frame. They are
// deliberately not merged.
func (c *Classifier) classifyFire(sig detection.Signals, labelThreshold float64) []detection.Detection {
	var out []detection.Detection

	// Strategy A: color segmentation, carries the segmenter's bbox.
	if f := sig.Fire; f != nil && f.FramePercent >= c.cfg.FireColorMinPercent {
		box := f.Box
		out = append(out, detection.Detection{
			Type:       detection.TypeFire,
			Label:      fmt.Sprintf("%s (%.1f%%)", f.Label, f.FramePercent),
			Confidence: f.Score,
			Box:        &box,
		})
	}

	// Strategy B: scene label evidence. No bbox; full-frame extent is the
	// conservative default when only label evidence exists.
	for i := range sig.Labels {
		l := &sig.Labels[i]
		if l.Score < labelThreshold {
			continue
		}
		if fireVocabulary.Contains(l.Label) {
			out = append(out, detection.Detection{
				Type:       detection.TypeFire,
				Label:      l.Label,
				Confidence: l.Score,
			})
			break
		}
	}

	return out
}
