// Package camera runs the realtime capture loop: it reads webcam frames,
// rate-limits analysis, overlays recent detections and saves frames that
// raised critical alerts.
package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/detection"
	"github.com/guardiavista/guardia-go/internal/errors"
	"github.com/guardiavista/guardia-go/internal/logging"
	"github.com/guardiavista/guardia-go/internal/pipeline"
)

const maxConsecutiveReadErrors = 10

// Analyzer runs one frame through the detection pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte, imageRef, location string, opts pipeline.Options) (*pipeline.Result, error)
}

// Loop captures frames from one device and feeds them to the analyzer.
// The loop owns its rate-limit timestamp and the most recent detections;
// neither is shared outside the running goroutine.
type Loop struct {
	device       int
	interval     time.Duration
	savePath     string
	location     string
	liveFireBar  float64
	analyzer     Analyzer
	log          *slog.Logger

	lastAnalysis   time.Time
	lastDetections []detection.Detection
}

// NewLoop creates a capture loop from the realtime settings.
func NewLoop(settings conf.RealtimeSettings, liveFireThreshold float64, analyzer Analyzer) *Loop {
	interval := time.Duration(settings.IntervalSeconds * float64(time.Second))
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Loop{
		device:      settings.Device,
		interval:    interval,
		savePath:    settings.SavePath,
		location:    settings.Location,
		liveFireBar: liveFireThreshold,
		analyzer:    analyzer,
		log:         logging.ForService("camera"),
	}
}

// Run captures frames until the context is canceled. Analysis failures on
// individual frames are logged and skipped; only capture device failures
// end the loop.
func (l *Loop) Run(ctx context.Context) error {
	cap, err := gocv.OpenVideoCapture(l.device)
	if err != nil {
		return errors.New(fmt.Errorf("opening capture device %d: %w", l.device, err)).
			Component("camera").
			Category(errors.CategoryCamera).
			Build()
	}
	defer cap.Close()

	if l.savePath != "" {
		if err := os.MkdirAll(l.savePath, 0o755); err != nil {
			return fmt.Errorf("creating frame save directory: %w", err)
		}
	}

	l.log.Info("capture loop started",
		"device", l.device,
		"interval", l.interval,
		"location", l.location)

	frame := gocv.NewMat()
	defer frame.Close()

	readErrors := 0
	for {
		select {
		case <-ctx.Done():
			l.log.Info("capture loop stopping")
			return nil
		default:
		}

		if ok := cap.Read(&frame); !ok || frame.Empty() {
			readErrors++
			if readErrors >= maxConsecutiveReadErrors {
				return errors.Newf("capture device %d stopped producing frames", l.device).
					Component("camera").
					Category(errors.CategoryCamera).
					Build()
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		readErrors = 0

		if time.Since(l.lastAnalysis) < l.interval {
			continue
		}
		l.lastAnalysis = time.Now()
		l.processFrame(ctx, &frame)
	}
}

// processFrame analyzes one frame and saves it when a critical detection
// came out of it. The saved path is the image reference carried by the
// alerts of that frame.
func (l *Loop) processFrame(ctx context.Context, frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		l.log.Warn("encoding frame failed", "error", err)
		return
	}
	defer buf.Close()

	frameRef := l.frameRef()
	result, err := l.analyzer.Analyze(ctx, buf.GetBytes(), frameRef, l.location,
		pipeline.Options{
			FireLabelThreshold: l.liveFireBar,
			DropNoise:          true,
		})
	if err != nil {
		// Recoverable by design: skip the frame, keep the loop alive.
		l.log.Warn("frame analysis failed", "error", err)
		return
	}

	l.lastDetections = result.Detections
	if l.savePath != "" && hasCritical(result.Detections) {
		l.saveFrame(frame, frameRef, result.Detections)
	}
}

// frameRef is the path a critical frame would be saved under. It is
// computed before analysis so the persisted alerts reference it.
func (l *Loop) frameRef() string {
	name := fmt.Sprintf("frame_%s.jpg", time.Now().Format("20060102_150405.000"))
	if l.savePath == "" {
		return name
	}
	return filepath.Join(l.savePath, name)
}

func hasCritical(dets []detection.Detection) bool {
	for i := range dets {
		if dets[i].Type.Critical() {
			return true
		}
	}
	return false
}

// saveFrame writes the frame with detection overlays to disk.
func (l *Loop) saveFrame(frame *gocv.Mat, path string, dets []detection.Detection) {
	annotated := frame.Clone()
	defer annotated.Close()
	drawOverlay(&annotated, dets)

	if ok := gocv.IMWrite(path, annotated); !ok {
		l.log.Warn("saving alert frame failed", "path", path)
		return
	}
	l.log.Info("alert frame saved", "path", path, "detections", len(dets))
}

// overlayColors per threat type, in BGR-independent RGBA as gocv expects.
var overlayColors = map[detection.Type]color.RGBA{
	detection.TypeWeapon:     {R: 220, G: 20, B: 20, A: 255},
	detection.TypeFire:       {R: 255, G: 140, B: 0, A: 255},
	detection.TypeVehicle:    {R: 230, G: 200, B: 0, A: 255},
	detection.TypeAggression: {R: 200, G: 0, B: 200, A: 255},
}

// drawOverlay draws detection rectangles and labels onto the frame.
// Detections without a bounding box are listed in the top-left corner.
func drawOverlay(frame *gocv.Mat, dets []detection.Detection) {
	w := frame.Cols()
	h := frame.Rows()
	cornerLine := 1

	for i := range dets {
		d := &dets[i]
		c, ok := overlayColors[d.Type]
		if !ok {
			c = color.RGBA{R: 160, G: 160, B: 160, A: 255}
		}
		caption := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)

		if d.Box == nil || !d.Box.Valid() {
			gocv.PutText(frame, caption, image.Pt(10, 25*cornerLine),
				gocv.FontHersheySimplex, 0.6, c, 2)
			cornerLine++
			continue
		}

		rect := image.Rect(
			int(d.Box.X1*float64(w)), int(d.Box.Y1*float64(h)),
			int(d.Box.X2*float64(w)), int(d.Box.Y2*float64(h)))
		gocv.Rectangle(frame, rect, c, 2)
		gocv.PutText(frame, caption, image.Pt(rect.Min.X, rect.Min.Y-6),
			gocv.FontHersheySimplex, 0.6, c, 2)
	}
}
