// vocabulary.go: immutable keyword tables used by the fusion rules.
// Matching is case-insensitive substring containment; the tables are built
// once at package init and never mutated afterwards.
package classify

import (
	"strings"

	"github.com/guardiavista/guardia-go/internal/detection"
)

// Vocabulary is an ordered, lowercased term list. Match returns the first
// term contained in the label, so earlier terms take precedence.
type Vocabulary struct {
	terms []string
}

// NewVocabulary lowercases the terms once and returns an immutable table.
func NewVocabulary(terms ...string) *Vocabulary {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &Vocabulary{terms: lowered}
}

// Match returns the first term contained in label, if any.
func (v *Vocabulary) Match(label string) (string, bool) {
	label = strings.ToLower(label)
	for _, term := range v.terms {
		if strings.Contains(label, term) {
			return term, true
		}
	}
	return "", false
}

// Contains reports whether any term is contained in label.
func (v *Vocabulary) Contains(label string) bool {
	_, ok := v.Match(label)
	return ok
}

var (
	// dangerVocabulary lists object names treated as weapons.
	dangerVocabulary = NewVocabulary(
		"gun", "knife", "weapon", "firearm", "rifle", "pistol", "sword",
		"blade", "cutting tool", "kitchen knife", "dagger", "machete",
		"scalpel", "razor", "bayonet",
	)

	// vehicleVocabulary lists vehicle classes flagged as suspicious.
	vehicleVocabulary = NewVocabulary(
		"truck", "van", "suv", "vehicle", "car", "automobile",
	)

	// fireVocabulary lists scene labels indicating fire or combustion.
	fireVocabulary = NewVocabulary(
		"fire", "flames", "flame", "smoke",
		"wildfire", "conflagration", "explosion", "burning",
	)

	// aggressionDirectVocabulary lists labels that name violence outright.
	aggressionDirectVocabulary = NewVocabulary(
		"violence", "aggression", "aggressive", "fight", "fighting",
		"assault", "attack", "conflict", "combat", "brawl",
		"altercation", "struggle", "hostility", "hostile",
		"physical violence", "physical altercation", "physical conflict",
		"punch", "punching", "hitting", "striking", "kicking",
		"wrestling", "grappling", "scuffle", "tussle", "melee",
	)

	// actionTensionVocabulary lists labels that suggest conflict only in
	// combination with multiple persons in frame.
	actionTensionVocabulary = NewVocabulary(
		"action", "tension", "drama", "movement", "motion",
	)

	// postureVocabulary lists body-position labels, weighted lower than
	// action terms by the contextual strategy.
	postureVocabulary = NewVocabulary(
		"lying", "lying down", "on ground", "ground", "floor",
		"standing", "over", "above", "leaning", "bending",
	)

	// noiseVocabulary lists object and label terms that generate false
	// positives on densely sampled live frames (hands near the lens,
	// gloves, anatomy labels). Only the realtime path filters with it.
	noiseVocabulary = NewVocabulary(
		"finger", "thumb", "nail", "hand", "glove", "medical",
		"plastic", "science", "anatomy", "body part",
	)
)

// IsNoise reports whether a signal label is on the realtime ignore list.
func IsNoise(label string) bool {
	return noiseVocabulary.Contains(label)
}

// InferTypeFromLabel maps a free-text alert label back onto a threat type
// using the same substring tables as live classification. Used only by the
// offline backfill tool for historical rows stored without a type.
func InferTypeFromLabel(label string) detection.Type {
	switch {
	case dangerVocabulary.Contains(label):
		return detection.TypeWeapon
	case fireVocabulary.Contains(label):
		return detection.TypeFire
	case vehicleVocabulary.Contains(label):
		return detection.TypeVehicle
	case aggressionDirectVocabulary.Contains(label):
		return detection.TypeAggression
	default:
		return detection.TypeOther
	}
}
