package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/detection"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "alerts.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testAlert(alertType string, confidence float64, location string) Alert {
	d := detection.Detection{
		Type:       detection.Type(alertType),
		Label:      "test " + alertType,
		Confidence: confidence,
		Box:        &detection.BBox{X1: 0.1, Y1: 0.1, X2: 0.5, Y2: 0.5},
	}
	return AlertFromDetection(&d, "test.jpg", location, time.Now())
}

func TestSaveAlert_AssignsMonotonicIDs(t *testing.T) {
	store := openTestStore(t)

	var ids []uint
	for range 3 {
		alert := testAlert("weapon", 0.9, "Plaza Central")
		require.NoError(t, store.SaveAlert(&alert))
		require.NotZero(t, alert.ID, "identifier must be written back into the inserted row")
		ids = append(ids, alert.ID)
	}

	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])
}

func TestSaveAlert_NotOpen(t *testing.T) {
	store := &SQLiteStore{}
	alert := testAlert("fire", 0.8, "")
	assert.Error(t, store.SaveAlert(&alert))
}

func TestAlertRoundTrip(t *testing.T) {
	store := openTestStore(t)

	alert := testAlert("weapon", 0.92, "Plaza Central")
	require.NoError(t, store.SaveAlert(&alert))

	got, err := store.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "weapon", got.Type)
	assert.InDelta(t, 0.92, got.Confidence, 0.001)
	assert.Equal(t, "Plaza Central", got.Location)

	box := got.BBox()
	require.NotNil(t, box)
	assert.InDelta(t, 0.1, box.X1, 0.001)
	assert.InDelta(t, 0.5, box.X2, 0.001)
}

func TestAlertWithoutBBox(t *testing.T) {
	store := openTestStore(t)

	d := detection.Detection{Type: detection.TypeFire, Label: "smoke", Confidence: 0.8}
	alert := AlertFromDetection(&d, "frame.jpg", "Depot", time.Now())
	require.NoError(t, store.SaveAlert(&alert))

	got, err := store.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BBox())
}

func TestAlertQueries(t *testing.T) {
	store := openTestStore(t)

	for _, a := range []Alert{
		testAlert("weapon", 0.95, "Plaza Central"),
		testAlert("fire", 0.60, "Plaza Central"),
		testAlert("vehicle", 0.70, "Depot"),
	} {
		alert := a
		require.NoError(t, store.SaveAlert(&alert))
	}

	last, err := store.GetLastAlerts(2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "vehicle", last[0].Type, "newest first")

	fires, err := store.GetAlertsByType("fire", 10)
	require.NoError(t, err)
	require.Len(t, fires, 1)
	assert.Equal(t, "fire", fires[0].Type)

	critical, err := store.GetAlertsAboveConfidence(0.80, 10)
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "weapon", critical[0].Type)

	window, err := store.GetAlertsInWindow(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, window, 3)
}

func TestBackfillSupport(t *testing.T) {
	store := openTestStore(t)

	alert := testAlert("", 0.8, "Depot")
	require.NoError(t, store.SaveAlert(&alert))
	typed := testAlert("weapon", 0.9, "Depot")
	require.NoError(t, store.SaveAlert(&typed))

	missing, err := store.GetAlertsWithoutType()
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, alert.ID, missing[0].ID)

	require.NoError(t, store.SetAlertType(alert.ID, "weapon"))
	missing, err = store.GetAlertsWithoutType()
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDestinations(t *testing.T) {
	store := openTestStore(t)

	dest := Destination{Location: "Plaza Central", Name: "Police Service - Plaza Central", Active: true}
	require.NoError(t, store.SaveDestination(&dest))
	require.NotZero(t, dest.ID)

	found, err := store.FindEmergencyDestination("Plaza Central", "police")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, dest.ID, found.ID)

	// Absence is an expected outcome, not an error.
	absent, err := store.FindEmergencyDestination("Plaza Central", "fire brigade")
	require.NoError(t, err)
	assert.Nil(t, absent)

	inactive := Destination{Location: "Plaza Central", Name: "Old Guard", Active: false}
	require.NoError(t, store.SaveDestination(&inactive))

	active, err := store.GetActiveDestinations("Plaza Central")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, dest.ID, active[0].ID)
}

// A destination created inactive must stay inactive on re-read. This
// regressed once when the Active column carried a gorm default tag: gorm
// omits zero-valued fields with a default on insert, so active=false rows
// came back as active=true.
func TestSaveDestination_InactiveStaysInactive(t *testing.T) {
	store := openTestStore(t)

	dest := Destination{Location: "Depot", Name: "Retired Desk", Active: false}
	require.NoError(t, store.SaveDestination(&dest))
	require.NotZero(t, dest.ID)

	var got Destination
	require.NoError(t, store.DB.First(&got, dest.ID).Error)
	require.False(t, got.Active)

	active, err := store.GetActiveDestinations("Depot")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestEscalationRecords(t *testing.T) {
	store := openTestStore(t)

	alert := testAlert("weapon", 0.9, "Plaza Central")
	require.NoError(t, store.SaveAlert(&alert))

	rec := EscalationRecord{
		AlertID:       alert.ID,
		DestinationID: 1,
		Location:      "Plaza Central",
		Type:          "weapon",
		SentAt:        time.Now(),
		Status:        "sent",
	}
	require.NoError(t, store.SaveEscalation(&rec))

	recs, err := store.GetEscalationsForAlert(alert.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "sent", recs[0].Status)

	// Empty status defaults to sent in code, not in the schema.
	bare := EscalationRecord{AlertID: alert.ID, DestinationID: 2, Location: "Plaza Central", Type: "weapon", SentAt: time.Now()}
	require.NoError(t, store.SaveEscalation(&bare))
	recs, err = store.GetEscalationsForAlert(alert.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "sent", recs[1].Status)
}

func TestNew_BackendSelection(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	store, err := New(settings)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	settings = &conf.Settings{}
	settings.Output.MySQL.Enabled = true
	store, err = New(settings)
	require.NoError(t, err)
	assert.IsType(t, &MySQLStore{}, store)

	_, err = New(&conf.Settings{})
	assert.Error(t, err)
}
