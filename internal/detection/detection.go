// Package detection defines the domain model shared by the signal
// extractors, the classifier and the persistence layer: raw perception
// signals on the input side and typed, scored Detections on the output side.
package detection

import "fmt"

// Type identifies the threat category of a Detection.
type Type string

const (
	TypeWeapon     Type = "weapon"
	TypeFire       Type = "fire"
	TypeVehicle    Type = "vehicle"
	TypeAggression Type = "aggression"
	TypeOther      Type = "other"
)

// Critical reports whether alerts of this type qualify for escalation.
func (t Type) Critical() bool {
	switch t {
	case TypeWeapon, TypeFire, TypeAggression:
		return true
	default:
		return false
	}
}

// BBox is a bounding box in normalized image coordinates, expressed as
// fractions of image width and height in the range [0,1].
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Valid reports whether the box is normalized and well ordered.
func (b BBox) Valid() bool {
	return b.X1 >= 0 && b.X1 <= b.X2 && b.X2 <= 1 &&
		b.Y1 >= 0 && b.Y1 <= b.Y2 && b.Y2 <= 1
}

// CenterY returns the vertical center of the box, used by the posture
// heuristic of the aggression classifier.
func (b BBox) CenterY() float64 {
	return (b.Y1 + b.Y2) / 2
}

func (b BBox) String() string {
	return fmt.Sprintf("[%.2f,%.2f,%.2f,%.2f]", b.X1, b.Y1, b.X2, b.Y2)
}

// Detection is a single classified threat candidate for one image. It is
// ephemeral classifier output; persistence is the alert store's concern.
type Detection struct {
	Type       Type
	Label      string
	Confidence float64
	// Box is nil for detections without spatial extent, for example
	// fire inferred from scene labels or aggression.
	Box *BBox
}

func (d *Detection) String() string {
	if d.Box != nil {
		return fmt.Sprintf("%s %q (%.2f) at %s", d.Type, d.Label, d.Confidence, d.Box)
	}
	return fmt.Sprintf("%s %q (%.2f)", d.Type, d.Label, d.Confidence)
}

// ObjectSignal is a raw localized object candidate produced by the
// object-localization extractor.
type ObjectSignal struct {
	Label string
	Score float64
	Box   BBox
}

// LabelSignal is a raw scene label candidate with no spatial extent,
// produced by the scene-label extractor.
type LabelSignal struct {
	Label string
	Score float64
}

// FireSignal is the candidate emitted by the color-based fire segmenter.
type FireSignal struct {
	Label string
	Score float64
	Box   BBox
	// FramePercent is the percentage of frame pixels inside the fire
	// color mask, in [0,100].
	FramePercent float64
}

// Signals is the union of raw candidates from all extractors for one image.
type Signals struct {
	Objects []ObjectSignal
	Labels  []LabelSignal
	Fire    *FireSignal
}
