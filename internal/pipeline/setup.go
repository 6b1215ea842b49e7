package pipeline

import (
	"context"
	"fmt"

	"github.com/guardiavista/guardia-go/internal/alerts"
	"github.com/guardiavista/guardia-go/internal/classify"
	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/escalation"
	"github.com/guardiavista/guardia-go/internal/firecolor"
	"github.com/guardiavista/guardia-go/internal/notify"
	"github.com/guardiavista/guardia-go/internal/observability"
	"github.com/guardiavista/guardia-go/internal/observability/metrics"
	"github.com/guardiavista/guardia-go/internal/vision"
)

// System bundles the assembled pipeline with the resources it owns.
type System struct {
	Pipeline *Pipeline
	Store    datastore.Interface
	Metrics  *observability.Metrics
}

// SystemOptions tune the assembly.
type SystemOptions struct {
	// EnableMetrics attaches a Prometheus registry. The realtime loop
	// enables this, the one-shot commands do not.
	EnableMetrics bool
}

// NewSystem wires the full detection system from settings: store,
// notifier, escalation router, alert store, extractors and classifier.
func NewSystem(ctx context.Context, settings *conf.Settings, opts SystemOptions) (*System, error) {
	store, err := datastore.New(settings)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("opening datastore: %w", err)
	}

	notifier, err := notify.New(settings.Escalation)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	router := escalation.NewRouter(store, notifier, settings.Escalation)
	alertStore := alerts.NewStore(store, router)

	visionClient, err := vision.NewClient(ctx, settings.Vision)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	segmenter := firecolor.New(firecolor.Config{
		MinPixels:     settings.FireColor.MinPixels,
		MinPercent:    settings.FireColor.MinPercent,
		MinRegionArea: settings.FireColor.MinRegionArea,
		MinRegionSize: settings.FireColor.MinRegionSize,
	})
	classifier := classify.New(settings.Classifier)

	var m *observability.Metrics
	var pipelineMetrics *metrics.PipelineMetrics
	if opts.EnableMetrics {
		m, err = observability.NewMetrics()
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		pipelineMetrics = m.Pipeline
		router.SetMetrics(pipelineMetrics)
	}

	return &System{
		Pipeline: New(visionClient, segmenter, classifier, alertStore, pipelineMetrics),
		Store:    store,
		Metrics:  m,
	}, nil
}

// Close releases the system's resources.
func (s *System) Close() error {
	return s.Store.Close()
}
