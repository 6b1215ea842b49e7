package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardiavista/guardia-go/internal/classify"
	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/datastore"
	"github.com/guardiavista/guardia-go/internal/detection"
)

type fakeVision struct {
	objects []detection.ObjectSignal
	labels  []detection.LabelSignal
	objErr  error
	lblErr  error
}

func (f *fakeVision) DetectObjects(ctx context.Context, _ []byte) ([]detection.ObjectSignal, error) {
	return f.objects, f.objErr
}

func (f *fakeVision) DetectLabels(ctx context.Context, _ []byte) ([]detection.LabelSignal, error) {
	return f.labels, f.lblErr
}

type fakeFire struct {
	signal detection.FireSignal
	found  bool
}

func (f *fakeFire) Detect(image.Image) (detection.FireSignal, bool) {
	return f.signal, f.found
}

type fakeRecorder struct {
	recorded []detection.Detection
	nextID   uint
	err      error
}

func (f *fakeRecorder) Record(ctx context.Context, d *detection.Detection, imageRef, location string) (*datastore.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, *d)
	f.nextID++
	alert := datastore.AlertFromDetection(d, imageRef, location, time.Now())
	alert.ID = f.nextID
	return &alert, nil
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestPipeline(vision VisionSource, fire FireDetector, rec Recorder) *Pipeline {
	classifier := classify.New(conf.DefaultClassifierSettings())
	return New(vision, fire, classifier, rec, nil)
}

func TestAnalyze_WeaponDetectionRecorded(t *testing.T) {
	vision := &fakeVision{
		objects: []detection.ObjectSignal{{
			Label: "Knife",
			Score: 0.9,
			Box:   detection.BBox{X1: 0.1, Y1: 0.1, X2: 0.4, Y2: 0.5},
		}},
	}
	rec := &fakeRecorder{}
	p := newTestPipeline(vision, nil, rec)

	result, err := p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "Plaza Central", Options{})
	require.NoError(t, err)

	require.Len(t, result.Detections, 1)
	assert.Equal(t, detection.TypeWeapon, result.Detections[0].Type)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, uint(1), result.Alerts[0].ID)
	assert.Equal(t, "Plaza Central", result.Alerts[0].Location)
	require.Len(t, rec.recorded, 1)
}

func TestAnalyze_VisionFailureSkipsImage(t *testing.T) {
	vision := &fakeVision{objErr: errors.New("deadline exceeded")}
	rec := &fakeRecorder{}
	p := newTestPipeline(vision, nil, rec)

	_, err := p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "", Options{})
	require.Error(t, err)
	assert.Empty(t, rec.recorded, "nothing recorded when extraction fails")
}

func TestAnalyze_UndecodableImage(t *testing.T) {
	p := newTestPipeline(&fakeVision{}, nil, &fakeRecorder{})

	_, err := p.Analyze(context.Background(), []byte("not an image"), "bad.bin", "", Options{})
	require.Error(t, err)
}

func TestAnalyze_FireSignalReachesClassifier(t *testing.T) {
	fire := &fakeFire{
		signal: detection.FireSignal{
			Label:        "fire-by-color",
			Score:        0.05,
			Box:          detection.BBox{X1: 0.2, Y1: 0.2, X2: 0.5, Y2: 0.5},
			FramePercent: 5.0,
		},
		found: true,
	}
	rec := &fakeRecorder{}
	p := newTestPipeline(&fakeVision{}, fire, rec)

	result, err := p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "Depot", Options{})
	require.NoError(t, err)

	require.Len(t, result.Detections, 1)
	assert.Equal(t, detection.TypeFire, result.Detections[0].Type)
	assert.NotNil(t, result.Detections[0].Box)
}

func TestAnalyze_FireLabelThresholdOverride(t *testing.T) {
	vision := &fakeVision{
		labels: []detection.LabelSignal{{Label: "Smoke", Score: 0.55}},
	}
	p := newTestPipeline(vision, nil, nil)

	// Default still threshold 0.70: no detection.
	result, err := p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "", Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Detections)

	// Live threshold 0.50: the label qualifies.
	result, err = p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "",
		Options{FireLabelThreshold: 0.50})
	require.NoError(t, err)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, detection.TypeFire, result.Detections[0].Type)
}

func TestAnalyze_NoiseFiltering(t *testing.T) {
	vision := &fakeVision{
		objects: []detection.ObjectSignal{{
			Label: "Kitchen knife",
			Score: 0.9,
			Box:   detection.BBox{X1: 0, Y1: 0, X2: 0.2, Y2: 0.2},
		}},
		labels: []detection.LabelSignal{
			{Label: "Finger", Score: 0.95},
			{Label: "Glove", Score: 0.90},
		},
	}
	p := newTestPipeline(vision, nil, nil)

	result, err := p.Analyze(context.Background(), jpegBytes(t), "frame.jpg", "",
		Options{DropNoise: true})
	require.NoError(t, err)

	assert.Empty(t, result.Signals.Labels, "noise labels dropped before fusion")
	require.Len(t, result.Signals.Objects, 1, "real objects survive filtering")
	require.Len(t, result.Detections, 1)
	assert.Equal(t, detection.TypeWeapon, result.Detections[0].Type)
}

func TestAnalyze_RecorderFailurePropagates(t *testing.T) {
	vision := &fakeVision{
		objects: []detection.ObjectSignal{{
			Label: "Gun",
			Score: 0.95,
			Box:   detection.BBox{X1: 0, Y1: 0, X2: 0.3, Y2: 0.3},
		}},
	}
	rec := &fakeRecorder{err: errors.New("db down")}
	p := newTestPipeline(vision, nil, rec)

	result, err := p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "Depot", Options{})
	require.Error(t, err)
	require.NotNil(t, result, "detections are still reported alongside the error")
	assert.Len(t, result.Detections, 1)
	assert.Empty(t, result.Alerts)
}

func TestAnalyze_NilRecorderIsAnalysisOnly(t *testing.T) {
	vision := &fakeVision{
		objects: []detection.ObjectSignal{{
			Label: "Truck",
			Score: 0.8,
			Box:   detection.BBox{X1: 0, Y1: 0, X2: 0.9, Y2: 0.9},
		}},
	}
	p := newTestPipeline(vision, nil, nil)

	result, err := p.Analyze(context.Background(), jpegBytes(t), "scene.jpg", "", Options{})
	require.NoError(t, err)
	require.Len(t, result.Detections, 1)
	assert.Empty(t, result.Alerts)
}
