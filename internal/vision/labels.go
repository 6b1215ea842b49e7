package vision

import (
	"context"

	visionapi "google.golang.org/api/vision/v1"

	"github.com/guardiavista/guardia-go/internal/detection"
)

// DetectLabels runs scene-label detection on one image. Labels arrive
// ranked by the service; the order carries no meaning downstream.
func (c *Client) DetectLabels(ctx context.Context, image []byte) ([]detection.LabelSignal, error) {
	resp, err := c.annotate(ctx, image, &visionapi.Feature{
		Type:       featureLabelDetection,
		MaxResults: c.maxLabels,
	})
	if err != nil {
		return nil, err
	}
	return mapLabels(resp.LabelAnnotations), nil
}

func mapLabels(annotations []*visionapi.EntityAnnotation) []detection.LabelSignal {
	signals := make([]detection.LabelSignal, 0, len(annotations))
	for _, label := range annotations {
		if label == nil {
			continue
		}
		signals = append(signals, detection.LabelSignal{
			Label: label.Description,
			Score: label.Score,
		})
	}
	return signals
}
