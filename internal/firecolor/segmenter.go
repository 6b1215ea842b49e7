// Package firecolor implements the self-contained color-based fire
// segmenter. It inspects the hue/saturation/brightness distribution of a
// frame, masks bright red/orange/yellow pixels, removes speckle noise with
// morphological filtering and emits at most one fire candidate signal for
// the largest connected region. Returning no signal is a normal outcome,
// not an error.
package firecolor

import (
	"image"

	"github.com/guardiavista/guardia-go/internal/detection"
)

// Hue bands on the half-degree scale (0-180), with saturation and
// brightness floors on the 0-255 scale. Tuned to pick up flame colors while
// excluding skin tones and dull yellow objects.
const (
	redLowMax    = 10  // bright red, low hues
	redHighMin   = 170 // bright red, wrapped hues
	orangeMin    = 10
	orangeMax    = 25
	yellowMin    = 25
	yellowMax    = 35
	minSat       = 120
	minVal       = 180
	kernelRadius = 2 // 5x5 structuring element
)

// Config carries the noise floors of the segmenter.
type Config struct {
	MinPixels     int     // minimum masked pixel count for a signal
	MinPercent    float64 // minimum percentage of frame pixels in the mask
	MinRegionArea int     // minimum pixel area of the largest region
	MinRegionSize int     // minimum bbox width/height of the region in pixels
}

// DefaultConfig returns the floors used in production.
func DefaultConfig() Config {
	return Config{
		MinPixels:     150,
		MinPercent:    0.3,
		MinRegionArea: 300,
		MinRegionSize: 20,
	}
}

// Segmenter detects fire-colored regions in decoded frames.
type Segmenter struct {
	cfg Config
}

// New returns a Segmenter with the given floors. Zero values fall back to
// the defaults so a partially filled config stays safe.
func New(cfg Config) *Segmenter {
	def := DefaultConfig()
	if cfg.MinPixels <= 0 {
		cfg.MinPixels = def.MinPixels
	}
	if cfg.MinPercent <= 0 {
		cfg.MinPercent = def.MinPercent
	}
	if cfg.MinRegionArea <= 0 {
		cfg.MinRegionArea = def.MinRegionArea
	}
	if cfg.MinRegionSize <= 0 {
		cfg.MinRegionSize = def.MinRegionSize
	}
	return &Segmenter{cfg: cfg}
}

// Detect runs the segmenter over one decoded frame. The second return value
// is false when no fire-colored region passes the floors.
func (s *Segmenter) Detect(img image.Image) (detection.FireSignal, bool) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return detection.FireSignal{}, false
	}

	mask := buildFireMask(img)
	mask = closeMask(mask, width, height)
	mask = openMask(mask, width, height)

	firePixels := 0
	for _, on := range mask {
		if on {
			firePixels++
		}
	}
	percent := float64(firePixels) / float64(width*height) * 100

	if firePixels < s.cfg.MinPixels || percent < s.cfg.MinPercent {
		return detection.FireSignal{}, false
	}

	region, ok := largestRegion(mask, width, height)
	if !ok || region.area < s.cfg.MinRegionArea {
		return detection.FireSignal{}, false
	}
	regionW := region.maxX - region.minX + 1
	regionH := region.maxY - region.minY + 1
	if regionW < s.cfg.MinRegionSize || regionH < s.cfg.MinRegionSize {
		return detection.FireSignal{}, false
	}

	score := percent / 100
	if score > 0.95 {
		score = 0.95
	}

	return detection.FireSignal{
		Label: "fire-by-color",
		Score: score,
		Box: detection.BBox{
			X1: float64(region.minX) / float64(width),
			Y1: float64(region.minY) / float64(height),
			X2: float64(region.maxX+1) / float64(width),
			Y2: float64(region.maxY+1) / float64(height),
		},
		FramePercent: percent,
	}, true
}

// buildFireMask marks pixels whose color falls into one of the three flame
// hue bands with sufficient saturation and brightness.
func buildFireMask(img image.Image) []bool {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	mask := make([]bool, width*height)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			h, sat, val := rgbToHSV(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
			if sat >= minSat && val >= minVal && inFlameBand(h) {
				mask[i] = true
			}
			i++
		}
	}
	return mask
}

func inFlameBand(h int) bool {
	switch {
	case h <= redLowMax || h >= redHighMin:
		return true
	case h >= orangeMin && h <= orangeMax:
		return true
	case h >= yellowMin && h <= yellowMax:
		return true
	}
	return false
}

// rgbToHSV converts 8-bit RGB to HSV with hue on the half-degree 0-180
// scale and saturation/value on 0-255, so the band constants keep their
// original tuning.
func rgbToHSV(r, g, b uint8) (h, s, v int) {
	rf, gf, bf := int(r), int(g), int(b)
	maxC := max3(rf, gf, bf)
	minC := min3(rf, gf, bf)
	delta := maxC - minC

	v = maxC
	if maxC == 0 {
		return 0, 0, 0
	}
	s = delta * 255 / maxC
	if delta == 0 {
		return 0, s, v
	}

	var hue float64
	switch maxC {
	case rf:
		hue = 60 * float64(gf-bf) / float64(delta)
	case gf:
		hue = 120 + 60*float64(bf-rf)/float64(delta)
	default:
		hue = 240 + 60*float64(rf-gf)/float64(delta)
	}
	if hue < 0 {
		hue += 360
	}
	return int(hue / 2), s, v
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// closeMask applies a morphological close (dilate then erode) with a 5x5
// square structuring element, bridging small gaps in flame regions.
func closeMask(mask []bool, width, height int) []bool {
	return erode(dilate(mask, width, height), width, height)
}

// openMask applies a morphological open (erode then dilate), removing
// isolated speckles smaller than the structuring element.
func openMask(mask []bool, width, height int) []bool {
	return dilate(erode(mask, width, height), width, height)
}

func dilate(mask []bool, width, height int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if neighborhoodAny(mask, width, height, x, y) {
				out[y*width+x] = true
			}
		}
	}
	return out
}

func erode(mask []bool, width, height int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if neighborhoodAll(mask, width, height, x, y) {
				out[y*width+x] = true
			}
		}
	}
	return out
}

func neighborhoodAny(mask []bool, width, height, x, y int) bool {
	for dy := -kernelRadius; dy <= kernelRadius; dy++ {
		for dx := -kernelRadius; dx <= kernelRadius; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			if mask[ny*width+nx] {
				return true
			}
		}
	}
	return false
}

func neighborhoodAll(mask []bool, width, height, x, y int) bool {
	for dy := -kernelRadius; dy <= kernelRadius; dy++ {
		for dx := -kernelRadius; dx <= kernelRadius; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				// Pixels outside the frame count as foreground for
				// erosion, so regions touching the frame edge keep
				// their border instead of shrinking inward.
				continue
			}
			if !mask[ny*width+nx] {
				return false
			}
		}
	}
	return true
}

// region describes a 4-connected component of the mask.
type region struct {
	area                   int
	minX, minY, maxX, maxY int
}

// largestRegion finds the 4-connected component with the largest pixel area
// using an iterative flood fill.
func largestRegion(mask []bool, width, height int) (region, bool) {
	visited := make([]bool, len(mask))
	var best region
	found := false

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		cur := region{
			minX: start % width, maxX: start % width,
			minY: start / width, maxY: start / width,
		}
		stack := []int{start}
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%width, idx/width

			cur.area++
			if x < cur.minX {
				cur.minX = x
			}
			if x > cur.maxX {
				cur.maxX = x
			}
			if y < cur.minY {
				cur.minY = y
			}
			if y > cur.maxY {
				cur.maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - width, idx + width} {
				if n < 0 || n >= len(mask) {
					continue
				}
				// Row wrap guard for horizontal neighbors.
				if (n == idx-1 && x == 0) || (n == idx+1 && x == width-1) {
					continue
				}
				if mask[n] && !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}

		if !found || cur.area > best.area {
			best = cur
			found = true
		}
	}

	return best, found
}
