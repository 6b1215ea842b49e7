// Package alerts turns classifier detections into persisted alert records
// and hands critical ones to the escalation router.
package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/detection"
	"github.com/guardiavista/guardia-go/internal/logging"
)

// Escalator receives every successfully persisted alert. Implementations
// must be best-effort: Record does not expect them to fail loudly.
type Escalator interface {
	Escalate(alert *datastore.Alert)
}

// Store persists alerts and triggers escalation. The record is the source
// of truth: escalation only ever runs for an alert that made it to disk.
type Store struct {
	ds        datastore.Interface
	escalator Escalator
	log       *slog.Logger
}

// NewStore creates an alert store. escalator may be nil when escalation is
// not wanted, for example in the offline backfill tool.
func NewStore(ds datastore.Interface, escalator Escalator) *Store {
	return &Store{
		ds:        ds,
		escalator: escalator,
		log:       logging.ForService("alerts"),
	}
}

// Record persists one detection as an alert and escalates it. The returned
// alert carries the identifier assigned by the store. Escalation runs
// synchronously after a successful insert and cannot fail the record.
func (s *Store) Record(ctx context.Context, d *detection.Detection, imageRef, location string) (*datastore.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alert := datastore.AlertFromDetection(d, imageRef, location, time.Now())
	if err := s.ds.SaveAlert(&alert); err != nil {
		return nil, err
	}

	s.log.Info("alert recorded",
		"alert_id", alert.ID,
		"type", alert.Type,
		"label", alert.Label,
		"confidence", alert.Confidence,
		"location", alert.Location)

	if s.escalator != nil {
		s.escalator.Escalate(&alert)
	}
	return &alert, nil
}

// RecordAll persists a batch of detections from one image. The first
// persistence failure aborts the batch; already persisted alerts are
// returned alongside the error.
func (s *Store) RecordAll(ctx context.Context, dets []detection.Detection, imageRef, location string) ([]datastore.Alert, error) {
	var saved []datastore.Alert
	for i := range dets {
		alert, err := s.Record(ctx, &dets[i], imageRef, location)
		if err != nil {
			return saved, err
		}
		saved = append(saved, *alert)
	}
	return saved, nil
}
