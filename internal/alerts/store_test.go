package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/detection"
)

// saveOnlyStore implements datastore.Interface for store tests; only the
// alert write path is exercised here.
type saveOnlyStore struct {
	datastore.DataStore

	saved   []datastore.Alert
	nextID  uint
	saveErr error
}

func (s *saveOnlyStore) Open() error  { return nil }
func (s *saveOnlyStore) Close() error { return nil }

func (s *saveOnlyStore) SaveAlert(alert *datastore.Alert) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.nextID++
	alert.ID = s.nextID
	s.saved = append(s.saved, *alert)
	return nil
}

type recordingEscalator struct {
	alertIDs []uint
}

func (e *recordingEscalator) Escalate(alert *datastore.Alert) {
	e.alertIDs = append(e.alertIDs, alert.ID)
}

func weaponDetection(confidence float64) detection.Detection {
	return detection.Detection{
		Type:       detection.TypeWeapon,
		Label:      "knife",
		Confidence: confidence,
		Box:        &detection.BBox{X1: 0.1, Y1: 0.2, X2: 0.4, Y2: 0.6},
	}
}

func TestRecord_PersistsAndEscalates(t *testing.T) {
	ds := &saveOnlyStore{}
	escalator := &recordingEscalator{}
	store := NewStore(ds, escalator)

	d := weaponDetection(0.9)
	alert, err := store.Record(context.Background(), &d, "scene.jpg", "Plaza Central")
	require.NoError(t, err)

	assert.Equal(t, uint(1), alert.ID)
	assert.Equal(t, "weapon", alert.Type)
	assert.False(t, alert.Timestamp.IsZero())
	require.Len(t, ds.saved, 1)
	assert.Equal(t, []uint{1}, escalator.alertIDs, "escalation follows a successful insert")
}

func TestRecord_SaveFailureSkipsEscalation(t *testing.T) {
	ds := &saveOnlyStore{saveErr: errors.New("disk full")}
	escalator := &recordingEscalator{}
	store := NewStore(ds, escalator)

	d := weaponDetection(0.9)
	_, err := store.Record(context.Background(), &d, "scene.jpg", "Plaza Central")
	require.Error(t, err)
	assert.Empty(t, escalator.alertIDs)
}

func TestRecord_NilEscalator(t *testing.T) {
	store := NewStore(&saveOnlyStore{}, nil)

	d := weaponDetection(0.9)
	alert, err := store.Record(context.Background(), &d, "scene.jpg", "")
	require.NoError(t, err)
	assert.NotZero(t, alert.ID)
}

func TestRecord_CanceledContext(t *testing.T) {
	ds := &saveOnlyStore{}
	store := NewStore(ds, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := weaponDetection(0.9)
	_, err := store.Record(ctx, &d, "scene.jpg", "")
	require.Error(t, err)
	assert.Empty(t, ds.saved)
}

func TestRecordAll_StopsOnFirstFailure(t *testing.T) {
	ds := &saveOnlyStore{}
	store := NewStore(ds, nil)

	dets := []detection.Detection{
		weaponDetection(0.9),
		{Type: detection.TypeFire, Label: "fire (2.5%)", Confidence: 0.5},
	}
	saved, err := store.RecordAll(context.Background(), dets, "scene.jpg", "Depot")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, uint(1), saved[0].ID)
	assert.Equal(t, uint(2), saved[1].ID)

	ds.saveErr = errors.New("db down")
	saved, err = store.RecordAll(context.Background(), dets, "scene.jpg", "Depot")
	require.Error(t, err)
	assert.Empty(t, saved)
}
