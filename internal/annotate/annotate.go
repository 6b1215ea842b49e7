// Package annotate renders detection overlays onto copies of analyzed
// images. Rendering is a boundary concern: nothing here feeds back into
// classification or persistence.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png" // register decoder for png sources
	"os"
	"path/filepath"
	"strings"

	"github.com/guardiavista/guardia-go/internal/detection"
	"github.com/guardiavista/guardia-go/internal/errors"
)

const (
	boxThickness = 3
	jpegQuality  = 90
)

// typeColors maps each threat type to its overlay color.
var typeColors = map[detection.Type]color.RGBA{
	detection.TypeWeapon:     {R: 220, G: 20, B: 20, A: 255},
	detection.TypeFire:       {R: 255, G: 140, B: 0, A: 255},
	detection.TypeVehicle:    {R: 230, G: 200, B: 0, A: 255},
	detection.TypeAggression: {R: 200, G: 0, B: 200, A: 255},
}

var defaultColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}

// colorFor returns the overlay color for a threat type.
func colorFor(t detection.Type) color.RGBA {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return defaultColor
}

// Render draws one rectangle per detection with a bounding box onto a copy
// of img. Detections without spatial extent (label-only fire evidence) are
// skipped. The input image is never modified.
func Render(img image.Image, dets []detection.Detection) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	w := bounds.Dx()
	h := bounds.Dy()
	for i := range dets {
		d := &dets[i]
		if d.Box == nil || !d.Box.Valid() {
			continue
		}
		drawRect(out,
			bounds.Min.X+int(d.Box.X1*float64(w)),
			bounds.Min.Y+int(d.Box.Y1*float64(h)),
			bounds.Min.X+int(d.Box.X2*float64(w)),
			bounds.Min.Y+int(d.Box.Y2*float64(h)),
			colorFor(d.Type))
	}
	return out
}

// drawRect draws an unfilled rectangle with boxThickness edges, clamped to
// the image bounds.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	for t := range boxThickness {
		hline(img, x1, x2, y1+t, c)
		hline(img, x1, x2, y2-t, c)
		vline(img, x1+t, y1, y2, c)
		vline(img, x2-t, y1, y2, c)
	}
}

func hline(img *image.RGBA, x1, x2, y int, c color.RGBA) {
	for x := x1; x <= x2; x++ {
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
	}
}

func vline(img *image.RGBA, x, y1, y2 int, c color.RGBA) {
	for y := y1; y <= y2; y++ {
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
	}
}

// OutputPath derives the annotated file path from the source image path:
// "scene.jpg" becomes "scene_annotated.jpg".
func OutputPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	base := strings.TrimSuffix(imagePath, ext)
	if ext == "" {
		ext = ".jpg"
	}
	return base + "_annotated" + ext
}

// Save renders the detections over the image at imagePath and writes the
// result next to it. Returns the path of the written file.
func Save(imagePath string, dets []detection.Detection) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", errors.New(fmt.Errorf("opening image: %w", err)).
			Component("annotate").
			Category(errors.CategoryImageDecode).
			Context("path", imagePath).
			Build()
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", errors.New(fmt.Errorf("decoding image: %w", err)).
			Component("annotate").
			Category(errors.CategoryImageDecode).
			Context("path", imagePath).
			Build()
	}

	out := Render(img, dets)
	outPath := OutputPath(imagePath)

	dst, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating annotated image: %w", err)
	}
	defer dst.Close()

	if err := jpeg.Encode(dst, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encoding annotated image: %w", err)
	}
	return outPath, nil
}
