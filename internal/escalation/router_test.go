package escalation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/observability/metrics"
)

// fakeStore is an in-memory datastore.Interface for router tests.
type fakeStore struct {
	destinations []datastore.Destination
	escalations  []datastore.EscalationRecord
	nextDestID   uint

	lookupErr error
	listErr   error
}

func (f *fakeStore) Open() error  { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) SaveAlert(*datastore.Alert) error { return nil }
func (f *fakeStore) GetAlert(uint) (datastore.Alert, error) {
	return datastore.Alert{}, nil
}
func (f *fakeStore) GetLastAlerts(int) ([]datastore.Alert, error)            { return nil, nil }
func (f *fakeStore) GetAlertsByType(string, int) ([]datastore.Alert, error)  { return nil, nil }
func (f *fakeStore) GetAlertsInWindow(_, _ time.Time) ([]datastore.Alert, error) {
	return nil, nil
}
func (f *fakeStore) GetAlertsAboveConfidence(float64, int) ([]datastore.Alert, error) {
	return nil, nil
}
func (f *fakeStore) GetAlertsWithoutType() ([]datastore.Alert, error) { return nil, nil }
func (f *fakeStore) SetAlertType(uint, string) error                  { return nil }

func (f *fakeStore) SaveDestination(dest *datastore.Destination) error {
	f.nextDestID++
	dest.ID = f.nextDestID
	f.destinations = append(f.destinations, *dest)
	return nil
}

func (f *fakeStore) FindEmergencyDestination(location, namePattern string) (*datastore.Destination, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for i := range f.destinations {
		d := &f.destinations[i]
		if d.Location == location && d.Active && containsFold(d.Name, namePattern) {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetActiveDestinations(location string) ([]datastore.Destination, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []datastore.Destination
	for _, d := range f.destinations {
		if d.Location == location && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveEscalation(rec *datastore.EscalationRecord) error {
	f.escalations = append(f.escalations, *rec)
	return nil
}

func (f *fakeStore) GetEscalationsForAlert(uint) ([]datastore.EscalationRecord, error) {
	return nil, nil
}

// containsFold mirrors the case-insensitive LIKE the real store relies on.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// recordingNotifier captures sent messages and can simulate failures.
type recordingNotifier struct {
	titles []string
	err    error
}

func (n *recordingNotifier) Send(title, message string) error {
	n.titles = append(n.titles, title)
	return n.err
}

func testEscalationSettings() conf.EscalationSettings {
	return conf.EscalationSettings{
		CriticalConfidence:  0.50,
		EmergencyConfidence: 0.80,
		EmergencyEmail:      "dispatch@emergencias.gov",
		EmergencyPhone:      "911",
		Police:              conf.EmergencyContact{Email: "policia@emergencias.gov", Phone: "911"},
		FireBrigade:         conf.EmergencyContact{Email: "bomberos@emergencias.gov", Phone: "911"},
	}
}

func alert(id uint, alertType string, confidence float64, location string) *datastore.Alert {
	return &datastore.Alert{
		ID:         id,
		Timestamp:  time.Now(),
		ImageRef:   "frame.jpg",
		Type:       alertType,
		Label:      "test " + alertType,
		Confidence: confidence,
		Location:   location,
	}
}

func TestEscalate_BelowCriticalTierIgnored(t *testing.T) {
	store := &fakeStore{}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Plaza Central", Name: "Guard Desk", Active: true},
	}
	notifier := &recordingNotifier{}
	router := NewRouter(store, notifier, testEscalationSettings())

	router.Escalate(alert(1, "weapon", 0.49, "Plaza Central"))

	assert.Empty(t, store.escalations)
	assert.Empty(t, notifier.titles)
}

func TestEscalate_NonCriticalTypeIgnored(t *testing.T) {
	store := &fakeStore{}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Plaza Central", Name: "Guard Desk", Active: true},
	}
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())

	router.Escalate(alert(1, "vehicle", 0.99, "Plaza Central"))

	assert.Empty(t, store.escalations)
}

func TestEscalate_MissingLocationIgnored(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())

	router.Escalate(alert(1, "weapon", 0.95, ""))

	assert.Empty(t, store.destinations, "no destination may be provisioned without a location")
	assert.Empty(t, store.escalations)
}

func TestEscalate_CriticalTierDispatchesToActiveDestinations(t *testing.T) {
	store := &fakeStore{nextDestID: 2}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Plaza Central", Name: "Guard Desk", Active: true},
		{ID: 2, Location: "Plaza Central", Name: "Night Shift", Active: true},
	}
	notifier := &recordingNotifier{}
	router := NewRouter(store, notifier, testEscalationSettings())

	router.Escalate(alert(7, "weapon", 0.65, "Plaza Central"))

	require.Len(t, store.escalations, 2)
	assert.Len(t, notifier.titles, 2)
	for _, rec := range store.escalations {
		assert.Equal(t, uint(7), rec.AlertID)
		assert.Equal(t, "weapon", rec.Type)
		assert.Equal(t, StatusSent, rec.Status)
	}
	// Below the emergency tier nothing is provisioned.
	assert.Len(t, store.destinations, 2)
}

func TestEscalate_EmergencyTierProvisionsPolice(t *testing.T) {
	store := &fakeStore{}
	notifier := &recordingNotifier{}
	router := NewRouter(store, notifier, testEscalationSettings())

	router.Escalate(alert(3, "weapon", 0.85, "Plaza Central"))

	require.Len(t, store.destinations, 1)
	dest := store.destinations[0]
	assert.Equal(t, "Police - Plaza Central", dest.Name)
	assert.Equal(t, "policia@emergencias.gov", dest.Email)
	assert.Equal(t, "911", dest.Phone)
	assert.True(t, dest.Active)

	require.Len(t, store.escalations, 1)
	assert.Equal(t, dest.ID, store.escalations[0].DestinationID)
}

func TestEscalate_EmergencyTierProvisionsFireBrigade(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())

	router.Escalate(alert(4, "fire", 0.90, "Depot"))

	require.Len(t, store.destinations, 1)
	assert.Equal(t, "Fire Brigade - Depot", store.destinations[0].Name)
	assert.Equal(t, "bomberos@emergencias.gov", store.destinations[0].Email)
}

func TestEscalate_ServiceWithoutContactFallsBackToShared(t *testing.T) {
	store := &fakeStore{}
	settings := testEscalationSettings()
	settings.Police = conf.EmergencyContact{}
	router := NewRouter(store, &recordingNotifier{}, settings)

	router.Escalate(alert(10, "weapon", 0.85, "Plaza Central"))

	require.Len(t, store.destinations, 1)
	assert.Equal(t, "dispatch@emergencias.gov", store.destinations[0].Email)
	assert.Equal(t, "911", store.destinations[0].Phone)
}

func TestEscalate_ProvisioningIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())

	router.Escalate(alert(1, "fire", 0.90, "Depot"))
	router.Escalate(alert(2, "fire", 0.95, "Depot"))

	assert.Len(t, store.destinations, 1, "repeated emergencies reuse the provisioned row")
	assert.Len(t, store.escalations, 2)
}

func TestEscalate_AggressionHasNoEmergencyService(t *testing.T) {
	store := &fakeStore{nextDestID: 1}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Plaza Central", Name: "Guard Desk", Active: true},
	}
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())

	router.Escalate(alert(5, "aggression", 0.92, "Plaza Central"))

	assert.Len(t, store.destinations, 1, "nothing provisioned for aggression")
	require.Len(t, store.escalations, 1, "standing destinations still receive the dispatch")
}

func TestEscalate_DeliveryFailureIsAudited(t *testing.T) {
	store := &fakeStore{nextDestID: 1}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Plaza Central", Name: "Guard Desk", Active: true},
	}
	notifier := &recordingNotifier{err: errors.New("channel down")}
	router := NewRouter(store, notifier, testEscalationSettings())

	router.Escalate(alert(6, "weapon", 0.70, "Plaza Central"))

	require.Len(t, store.escalations, 1)
	assert.Equal(t, StatusFailed, store.escalations[0].Status)
}

func TestEscalate_LookupFailureDoesNotPanicOrDispatchTwice(t *testing.T) {
	store := &fakeStore{lookupErr: errors.New("db down")}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Depot", Name: "Guard Desk", Active: true},
	}
	store.nextDestID = 1
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())

	router.Escalate(alert(8, "fire", 0.90, "Depot"))

	// Provisioning is skipped on lookup failure, dispatch still proceeds.
	assert.Len(t, store.destinations, 1)
	assert.Len(t, store.escalations, 1)
}

func TestEscalate_DispatchesAreCounted(t *testing.T) {
	store := &fakeStore{nextDestID: 2}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Plaza Central", Name: "Guard Desk", Active: true},
		{ID: 2, Location: "Plaza Central", Name: "Night Shift", Active: true},
	}
	m, err := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	router := NewRouter(store, &recordingNotifier{}, testEscalationSettings())
	router.SetMetrics(m)

	router.Escalate(alert(11, "weapon", 0.65, "Plaza Central"))

	sent := m.EscalationsTotal.WithLabelValues(StatusSent)
	assert.InDelta(t, 2.0, testutil.ToFloat64(sent), 0.001)
}

func TestEscalate_FailedDispatchesAreCountedAsFailed(t *testing.T) {
	store := &fakeStore{nextDestID: 1}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Depot", Name: "Guard Desk", Active: true},
	}
	m, err := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	notifier := &recordingNotifier{err: errors.New("channel down")}
	router := NewRouter(store, notifier, testEscalationSettings())
	router.SetMetrics(m)

	router.Escalate(alert(12, "weapon", 0.70, "Depot"))

	failed := m.EscalationsTotal.WithLabelValues(StatusFailed)
	assert.InDelta(t, 1.0, testutil.ToFloat64(failed), 0.001)
}

func TestEscalate_NilNotifierDefaultsToNoop(t *testing.T) {
	store := &fakeStore{nextDestID: 1}
	store.destinations = []datastore.Destination{
		{ID: 1, Location: "Depot", Name: "Guard Desk", Active: true},
	}
	router := NewRouter(store, nil, testEscalationSettings())

	router.Escalate(alert(9, "fire", 0.60, "Depot"))

	require.Len(t, store.escalations, 1)
	assert.Equal(t, StatusSent, store.escalations[0].Status)
}
