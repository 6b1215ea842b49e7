// model.go: gorm data model for alerts, destinations and the escalation
// audit trail.
package datastore

import (
	"time"

	"github.com/guardiavista/guardia-go/internal/detection"
)

// Alert is the persisted, immutable record of one Detection. Rows are
// created once at insert time and never updated by the live pipeline; the
// only sanctioned mutation is the offline type backfill over historical
// rows stored before the type column existed.
type Alert struct {
	ID         uint      `gorm:"primaryKey"`
	Timestamp  time.Time `gorm:"index:idx_alerts_timestamp"`
	ImageRef   string    `gorm:"not null"`
	Type       string    `gorm:"index:idx_alerts_type"`
	Label      string    `gorm:"not null"`
	Confidence float64   `gorm:"index:idx_alerts_confidence"`
	// Bounding box columns are nullable: label-only evidence has no
	// spatial extent.
	X1       *float64
	Y1       *float64
	X2       *float64
	Y2       *float64
	Location string `gorm:"index:idx_alerts_location"`
}

// BBox reconstructs the normalized bounding box, or nil when the alert has
// no spatial extent.
func (a *Alert) BBox() *detection.BBox {
	if a.X1 == nil || a.Y1 == nil || a.X2 == nil || a.Y2 == nil {
		return nil
	}
	return &detection.BBox{X1: *a.X1, Y1: *a.Y1, X2: *a.X2, Y2: *a.Y2}
}

// AlertFromDetection builds an unsaved Alert row from classifier output.
func AlertFromDetection(d *detection.Detection, imageRef, location string, ts time.Time) Alert {
	alert := Alert{
		Timestamp:  ts,
		ImageRef:   imageRef,
		Type:       string(d.Type),
		Label:      d.Label,
		Confidence: d.Confidence,
		Location:   location,
	}
	if d.Box != nil {
		x1, y1, x2, y2 := d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2
		alert.X1, alert.Y1, alert.X2, alert.Y2 = &x1, &y1, &x2, &y2
	}
	return alert
}

// Destination is a configured or auto-provisioned recipient of escalations
// for one location. Emergency-service destinations are unique per
// (location, service type), enforced by lookup-before-insert in the router.
// The Active column carries no gorm default tag: gorm omits zero-valued
// fields with a default on insert, which would turn Active:false into
// active=true and make deactivated rows impossible to create.
type Destination struct {
	ID        uint   `gorm:"primaryKey"`
	Location  string `gorm:"index:idx_destinations_location;not null"`
	Name      string `gorm:"not null"`
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time // set by gorm on insert
}

// EscalationRecord is an append-only audit entry linking one alert to one
// destination. AlertID and DestinationID are weak references: the alert
// store owns alert rows, not the router.
type EscalationRecord struct {
	ID            uint   `gorm:"primaryKey"`
	AlertID       uint   `gorm:"index:idx_escalations_alert"`
	DestinationID uint   `gorm:"index:idx_escalations_destination"`
	Location      string `gorm:"not null"`
	Type          string `gorm:"not null"`
	SentAt        time.Time
	Status        string
}
