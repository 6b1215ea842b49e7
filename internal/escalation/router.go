// Package escalation routes persisted alerts to responders by confidence
// tier and keeps an audit trail of every dispatch.
package escalation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/detection"
	"github.com/guardiavista/guardia-go/internal/logging"
	"github.com/guardiavista/guardia-go/internal/notify"
	"github.com/guardiavista/guardia-go/internal/observability/metrics"
)

// statuses recorded on the audit trail.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Router escalates critical alerts. Escalation is strictly best-effort:
// failures are logged and audited but never surface to the caller, so a
// broken channel cannot stall the detection pipeline.
type Router struct {
	ds       datastore.Interface
	notifier notify.Notifier
	cfg      conf.EscalationSettings
	log      *slog.Logger
	metrics  *metrics.PipelineMetrics
}

// NewRouter creates a router over the given store and notifier.
func NewRouter(ds datastore.Interface, notifier notify.Notifier, cfg conf.EscalationSettings) *Router {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Router{
		ds:       ds,
		notifier: notifier,
		cfg:      cfg,
		log:      logging.ForService("escalation"),
	}
}

// SetMetrics attaches the pipeline metrics collector. Dispatches are counted
// by status when one is attached; a nil collector disables counting.
func (r *Router) SetMetrics(m *metrics.PipelineMetrics) {
	r.metrics = m
}

// Escalate dispatches one persisted alert. Alerts below the critical tier,
// of a non-critical type, or without a location are ignored. At the
// emergency tier the matching emergency service is provisioned as a
// destination first, so the dispatch below reaches it.
func (r *Router) Escalate(alert *datastore.Alert) {
	if alert == nil || alert.ID == 0 {
		return
	}
	if !detection.Type(alert.Type).Critical() {
		return
	}
	if alert.Confidence < r.cfg.CriticalConfidence {
		return
	}
	if alert.Location == "" {
		r.log.Warn("critical alert without location, cannot escalate",
			"alert_id", alert.ID, "type", alert.Type)
		return
	}

	if alert.Confidence >= r.cfg.EmergencyConfidence {
		r.provisionEmergencyService(alert)
	}

	dests, err := r.ds.GetActiveDestinations(alert.Location)
	if err != nil {
		r.log.Error("listing destinations failed",
			"alert_id", alert.ID, "location", alert.Location, "error", err)
		return
	}
	if len(dests) == 0 {
		r.log.Warn("no active destinations for location",
			"alert_id", alert.ID, "location", alert.Location)
		return
	}

	title, message := r.composeMessage(alert)
	for i := range dests {
		r.dispatch(alert, &dests[i], title, message)
	}
}

// emergencyService maps a threat type to the emergency service that should
// be provisioned for it. Aggression has no mapped service, standing
// destinations still receive the dispatch.
func emergencyService(t detection.Type) (pattern, display string, ok bool) {
	switch t {
	case detection.TypeWeapon:
		return "police", "Police", true
	case detection.TypeFire:
		return "fire brigade", "Fire Brigade", true
	default:
		return "", "", false
	}
}

// provisionEmergencyService ensures the emergency service for the alert
// type exists as an active destination at the alert location. Lookup runs
// before insert so repeated emergencies at one location reuse the same row.
func (r *Router) provisionEmergencyService(alert *datastore.Alert) {
	pattern, display, ok := emergencyService(detection.Type(alert.Type))
	if !ok {
		r.log.Debug("no emergency service mapped for type",
			"alert_id", alert.ID, "type", alert.Type)
		return
	}

	existing, err := r.ds.FindEmergencyDestination(alert.Location, pattern)
	if err != nil {
		r.log.Error("emergency destination lookup failed",
			"alert_id", alert.ID, "location", alert.Location, "error", err)
		return
	}
	if existing != nil {
		return
	}

	contact := r.serviceContact(detection.Type(alert.Type))
	dest := datastore.Destination{
		Location: alert.Location,
		Name:     fmt.Sprintf("%s - %s", display, alert.Location),
		Email:    contact.Email,
		Phone:    contact.Phone,
		Active:   true,
	}
	if err := r.ds.SaveDestination(&dest); err != nil {
		r.log.Error("provisioning emergency destination failed",
			"alert_id", alert.ID, "location", alert.Location, "error", err)
		return
	}
	r.log.Info("emergency destination provisioned",
		"alert_id", alert.ID, "location", alert.Location, "name", dest.Name)
}

// serviceContact returns the configured contact for the service mapped to
// the threat type, filling empty channels from the shared fallback pair.
func (r *Router) serviceContact(t detection.Type) conf.EmergencyContact {
	var contact conf.EmergencyContact
	switch t {
	case detection.TypeWeapon:
		contact = r.cfg.Police
	case detection.TypeFire:
		contact = r.cfg.FireBrigade
	}
	if contact.Email == "" {
		contact.Email = r.cfg.EmergencyEmail
	}
	if contact.Phone == "" {
		contact.Phone = r.cfg.EmergencyPhone
	}
	return contact
}

// dispatch notifies one destination and appends the audit entry. The entry
// is written even when delivery fails, with a failed status.
func (r *Router) dispatch(alert *datastore.Alert, dest *datastore.Destination, title, message string) {
	status := StatusSent
	if err := r.notifier.Send(title, message); err != nil {
		status = StatusFailed
		r.log.Warn("escalation delivery failed",
			"alert_id", alert.ID, "destination", dest.Name, "error", err)
	}
	if r.metrics != nil {
		r.metrics.RecordEscalation(status)
	}

	rec := datastore.EscalationRecord{
		AlertID:       alert.ID,
		DestinationID: dest.ID,
		Location:      alert.Location,
		Type:          alert.Type,
		SentAt:        time.Now(),
		Status:        status,
	}
	if err := r.ds.SaveEscalation(&rec); err != nil {
		r.log.Error("recording escalation failed",
			"alert_id", alert.ID, "destination", dest.Name, "error", err)
		return
	}
	r.log.Info("alert escalated",
		"alert_id", alert.ID, "destination", dest.Name, "status", status)
}

func (r *Router) composeMessage(alert *datastore.Alert) (title, message string) {
	title = fmt.Sprintf("CRITICAL ALERT: %s at %s", alert.Type, alert.Location)
	message = fmt.Sprintf("%s detected with confidence %.2f (alert #%d, image %s)",
		alert.Label, alert.Confidence, alert.ID, alert.ImageRef)
	return title, message
}
