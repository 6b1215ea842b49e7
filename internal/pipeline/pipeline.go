// Package pipeline orchestrates one image analysis: parallel signal
// extraction, threat classification and alert recording.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for camera frames and stills
	_ "image/png"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guardiavista/guardia-go/internal/classify"
	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/detection"
	"github.com/guardiavista/guardia-go/internal/errors"
	"github.com/guardiavista/guardia-go/internal/logging"
	"github.com/guardiavista/guardia-go/internal/observability/metrics"
)

// VisionSource provides object and label signals for an encoded image.
type VisionSource interface {
	DetectObjects(ctx context.Context, image []byte) ([]detection.ObjectSignal, error)
	DetectLabels(ctx context.Context, image []byte) ([]detection.LabelSignal, error)
}

// FireDetector provides the color-based fire signal for a decoded image.
type FireDetector interface {
	Detect(img image.Image) (detection.FireSignal, bool)
}

// Recorder persists one detection as an alert.
type Recorder interface {
	Record(ctx context.Context, d *detection.Detection, imageRef, location string) (*datastore.Alert, error)
}

// Options tune one analysis run.
type Options struct {
	// FireLabelThreshold overrides the still-image fire label threshold.
	// Zero keeps the configured default; the realtime loop passes its
	// lower live threshold here.
	FireLabelThreshold float64
	// DropNoise filters known noise terms out of the raw signals before
	// fusion. Enabled by the realtime loop.
	DropNoise bool
}

// Result is the outcome of one analysis.
type Result struct {
	Signals    detection.Signals
	Detections []detection.Detection
	Alerts     []datastore.Alert
}

// Pipeline runs the analyze, classify and record stages for one image at a
// time. Extractors run in parallel inside a run; the stages themselves are
// synchronous.
type Pipeline struct {
	vision     VisionSource
	fire       FireDetector
	classifier *classify.Classifier
	recorder   Recorder
	metrics    *metrics.PipelineMetrics
	log        *slog.Logger
}

// New assembles a pipeline. fire, recorder and metrics may be nil: a nil
// fire detector skips color segmentation, a nil recorder makes the run
// analysis-only, nil metrics disables instrumentation.
func New(vision VisionSource, fire FireDetector, classifier *classify.Classifier, recorder Recorder, m *metrics.PipelineMetrics) *Pipeline {
	return &Pipeline{
		vision:     vision,
		fire:       fire,
		classifier: classifier,
		recorder:   recorder,
		metrics:    m,
		log:        logging.ForService("pipeline"),
	}
}

// Analyze runs the full pipeline over one encoded image. Extraction
// failures abort the run with a recoverable error and no detections; the
// caller skips the image and continues.
func (p *Pipeline) Analyze(ctx context.Context, imageData []byte, imageRef, location string, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := p.log.With("run_id", runID, "image", imageRef)

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, errors.New(fmt.Errorf("decoding image: %w", err)).
			Component("pipeline").
			Category(errors.CategoryImageDecode).
			Context("image", imageRef).
			Build()
	}

	signals, err := p.extract(ctx, imageData, img, log)
	if err != nil {
		return nil, err
	}
	if opts.DropNoise {
		signals = dropNoise(signals)
	}

	dets := p.classifier.Classify(signals, opts.FireLabelThreshold)
	for i := range dets {
		log.Info("threat detected",
			"type", dets[i].Type,
			"label", dets[i].Label,
			"confidence", dets[i].Confidence)
		if p.metrics != nil {
			p.metrics.RecordDetection(string(dets[i].Type))
		}
	}

	result := &Result{Signals: signals, Detections: dets}
	if p.recorder != nil {
		for i := range dets {
			alert, err := p.recorder.Record(ctx, &dets[i], imageRef, location)
			if err != nil {
				return result, err
			}
			result.Alerts = append(result.Alerts, *alert)
			if p.metrics != nil {
				p.metrics.RecordAlertSaved(alert.Type)
			}
		}
	}

	if p.metrics != nil {
		p.metrics.RecordImageProcessed(time.Since(start))
	}
	log.Debug("analysis complete",
		"objects", len(signals.Objects),
		"labels", len(signals.Labels),
		"detections", len(dets),
		"elapsed", time.Since(start))
	return result, nil
}

// extract runs the three extractors in parallel. The color segmenter has
// no error path; a vision failure cancels the run.
func (p *Pipeline) extract(ctx context.Context, imageData []byte, img image.Image, log *slog.Logger) (detection.Signals, error) {
	var signals detection.Signals

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		objects, err := p.vision.DetectObjects(gctx, imageData)
		if err != nil {
			p.recordExtractorError("objects")
			return err
		}
		signals.Objects = objects
		return nil
	})
	g.Go(func() error {
		labels, err := p.vision.DetectLabels(gctx, imageData)
		if err != nil {
			p.recordExtractorError("labels")
			return err
		}
		signals.Labels = labels
		return nil
	})
	g.Go(func() error {
		if p.fire == nil {
			return nil
		}
		if sig, ok := p.fire.Detect(img); ok {
			signals.Fire = &sig
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn("signal extraction failed", "error", err)
		return detection.Signals{}, err
	}
	return signals, nil
}

func (p *Pipeline) recordExtractorError(extractor string) {
	if p.metrics != nil {
		p.metrics.RecordExtractorError(extractor)
	}
}

// dropNoise removes known noise terms from the raw signals. Used by the
// realtime loop, where close-up hands and gloves produce spurious matches.
func dropNoise(signals detection.Signals) detection.Signals {
	out := detection.Signals{Fire: signals.Fire}
	for _, obj := range signals.Objects {
		if !classify.IsNoise(obj.Label) {
			out.Objects = append(out.Objects, obj)
		}
	}
	for _, label := range signals.Labels {
		if !classify.IsNoise(label.Label) {
			out.Labels = append(out.Labels, label)
		}
	}
	return out
}
