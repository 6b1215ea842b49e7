package vision

import (
	"context"

	visionapi "google.golang.org/api/vision/v1"

	"github.com/guardiavista/guardia-go/internal/detection"
)

// DetectObjects runs object localization on one image and maps the results
// to raw object signals. An empty result is success: nothing was found.
func (c *Client) DetectObjects(ctx context.Context, image []byte) ([]detection.ObjectSignal, error) {
	resp, err := c.annotate(ctx, image, &visionapi.Feature{Type: featureObjectLocalization})
	if err != nil {
		return nil, err
	}
	return c.mapObjects(resp.LocalizedObjectAnnotations), nil
}

// mapObjects converts localized object annotations to signals, reducing each
// 4-vertex normalized polygon to a bounding box spanned by its first and
// third vertices. Malformed polygons are dropped, never propagated.
func (c *Client) mapObjects(annotations []*visionapi.LocalizedObjectAnnotation) []detection.ObjectSignal {
	signals := make([]detection.ObjectSignal, 0, len(annotations))

	for _, obj := range annotations {
		if obj == nil || obj.BoundingPoly == nil || len(obj.BoundingPoly.NormalizedVertices) < 4 {
			c.log.Warn("dropping object with malformed bounding polygon",
				"label", safeName(obj))
			continue
		}

		v := obj.BoundingPoly.NormalizedVertices
		signals = append(signals, detection.ObjectSignal{
			Label: obj.Name,
			Score: obj.Score,
			Box: detection.BBox{
				X1: v[0].X,
				Y1: v[0].Y,
				X2: v[2].X,
				Y2: v[2].Y,
			},
		})
	}

	return signals
}

func safeName(obj *visionapi.LocalizedObjectAnnotation) string {
	if obj == nil {
		return ""
	}
	return obj.Name
}
