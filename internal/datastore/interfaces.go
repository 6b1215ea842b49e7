// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines
// the operations available to the alert store and the escalation router.
type Interface interface {
	Open() error
	Close() error

	// Alert rows: append-only for the live pipeline.
	SaveAlert(alert *Alert) error
	GetAlert(id uint) (Alert, error)
	GetLastAlerts(limit int) ([]Alert, error)
	GetAlertsByType(alertType string, limit int) ([]Alert, error)
	GetAlertsInWindow(start, end time.Time) ([]Alert, error)
	GetAlertsAboveConfidence(minConfidence float64, limit int) ([]Alert, error)

	// Offline backfill support, not part of the live contract.
	GetAlertsWithoutType() ([]Alert, error)
	SetAlertType(id uint, alertType string) error

	// Destinations and the escalation audit trail.
	SaveDestination(dest *Destination) error
	FindEmergencyDestination(location, namePattern string) (*Destination, error)
	GetActiveDestinations(location string) ([]Destination, error)
	SaveEscalation(rec *EscalationRecord) error
	GetEscalationsForAlert(alertID uint) ([]EscalationRecord, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store instance for the enabled backend.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("no database backend enabled").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// SaveAlert inserts one alert row in its own short transaction. The
// auto-assigned identifier is written back into alert.ID, so callers read
// the identifier from the row they just inserted rather than racing a
// separate highest-id query against concurrent writers.
func (ds *DataStore) SaveAlert(alert *Alert) error {
	if ds.DB == nil {
		return storeNotOpenError()
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(alert).Error
	})
	if err != nil {
		return errors.New(fmt.Errorf("saving alert: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("type", alert.Type).
			Build()
	}
	return nil
}

// GetAlert retrieves one alert by its identifier.
func (ds *DataStore) GetAlert(id uint) (Alert, error) {
	var alert Alert
	if err := ds.DB.First(&alert, id).Error; err != nil {
		return Alert{}, fmt.Errorf("getting alert %d: %w", id, err)
	}
	return alert, nil
}

// GetLastAlerts returns the most recent alerts, newest first.
func (ds *DataStore) GetLastAlerts(limit int) ([]Alert, error) {
	var alerts []Alert
	err := ds.DB.Order("id DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("getting last alerts: %w", err)
	}
	return alerts, nil
}

// GetAlertsByType returns the most recent alerts of one type.
func (ds *DataStore) GetAlertsByType(alertType string, limit int) ([]Alert, error) {
	var alerts []Alert
	err := ds.DB.Where("type = ?", alertType).
		Order("id DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("getting alerts of type %s: %w", alertType, err)
	}
	return alerts, nil
}

// GetAlertsInWindow returns alerts with timestamps inside [start, end).
func (ds *DataStore) GetAlertsInWindow(start, end time.Time) ([]Alert, error) {
	var alerts []Alert
	err := ds.DB.Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("id").Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("getting alerts in window: %w", err)
	}
	return alerts, nil
}

// GetAlertsAboveConfidence returns recent alerts at or above a confidence
// tier, newest first.
func (ds *DataStore) GetAlertsAboveConfidence(minConfidence float64, limit int) ([]Alert, error) {
	var alerts []Alert
	err := ds.DB.Where("confidence >= ?", minConfidence).
		Order("id DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("getting alerts above confidence %.2f: %w", minConfidence, err)
	}
	return alerts, nil
}

// GetAlertsWithoutType returns historical rows stored without a type.
func (ds *DataStore) GetAlertsWithoutType() ([]Alert, error) {
	var alerts []Alert
	err := ds.DB.Where("type IS NULL OR type = ''").Order("id").Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("getting alerts without type: %w", err)
	}
	return alerts, nil
}

// SetAlertType assigns a type to one historical row. Used only by the
// offline backfill tool.
func (ds *DataStore) SetAlertType(id uint, alertType string) error {
	err := ds.DB.Model(&Alert{}).Where("id = ?", id).
		Update("type", alertType).Error
	if err != nil {
		return fmt.Errorf("setting type for alert %d: %w", id, err)
	}
	return nil
}

// SaveDestination inserts a destination row.
func (ds *DataStore) SaveDestination(dest *Destination) error {
	if ds.DB == nil {
		return storeNotOpenError()
	}
	if err := ds.DB.Create(dest).Error; err != nil {
		return errors.New(fmt.Errorf("saving destination: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// FindEmergencyDestination looks up an active destination at a location
// whose name contains the service pattern. Returns (nil, nil) when absent;
// absence is an expected outcome, not an error.
func (ds *DataStore) FindEmergencyDestination(location, namePattern string) (*Destination, error) {
	var dest Destination
	err := ds.DB.Where("location = ? AND name LIKE ? AND active = ?",
		location, "%"+namePattern+"%", true).First(&dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding emergency destination: %w", err)
	}
	return &dest, nil
}

// GetActiveDestinations returns all active destinations for a location.
func (ds *DataStore) GetActiveDestinations(location string) ([]Destination, error) {
	var dests []Destination
	err := ds.DB.Where("location = ? AND active = ?", location, true).
		Order("id").Find(&dests).Error
	if err != nil {
		return nil, fmt.Errorf("getting active destinations: %w", err)
	}
	return dests, nil
}

// SaveEscalation appends one audit entry. An empty status defaults to
// "sent"; the default lives here rather than in a gorm tag because gorm
// drops zero-valued fields carrying a default tag on insert.
func (ds *DataStore) SaveEscalation(rec *EscalationRecord) error {
	if ds.DB == nil {
		return storeNotOpenError()
	}
	if rec.Status == "" {
		rec.Status = "sent"
	}
	if err := ds.DB.Create(rec).Error; err != nil {
		return errors.New(fmt.Errorf("saving escalation record: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// GetEscalationsForAlert returns the audit entries for one alert.
func (ds *DataStore) GetEscalationsForAlert(alertID uint) ([]EscalationRecord, error) {
	var recs []EscalationRecord
	err := ds.DB.Where("alert_id = ?", alertID).Order("id").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("getting escalations for alert %d: %w", alertID, err)
	}
	return recs, nil
}

func storeNotOpenError() error {
	return errors.Newf("database connection is not initialized").
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
}
