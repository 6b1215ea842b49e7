// Package vision adapts the external image annotation service into the raw
// signal types consumed by the classifier. Service failures surface as
// recoverable errors: the caller skips the current image and continues.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/guardiavista/guardia-go/internal/conf"
	"github.com/guardiavista/guardia-go/internal/errors"
	"github.com/guardiavista/guardia-go/internal/logging"
)

const (
	featureObjectLocalization = "OBJECT_LOCALIZATION"
	featureLabelDetection     = "LABEL_DETECTION"
)

// Client wraps the annotation service with per-request timeouts.
type Client struct {
	svc       *visionapi.Service
	timeout   time.Duration
	maxLabels int64
	log       *slog.Logger
}

// NewClient builds a Client from settings. With an empty credentials file
// the service falls back to application default credentials.
func NewClient(ctx context.Context, cfg conf.VisionSettings) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.New(fmt.Errorf("creating vision service: %w", err)).
			Component("vision").
			Category(errors.CategoryConfiguration).
			Build()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxLabels := int64(cfg.MaxLabels)
	if maxLabels <= 0 {
		maxLabels = 25
	}

	return &Client{
		svc:       svc,
		timeout:   timeout,
		maxLabels: maxLabels,
		log:       logging.ForService("vision"),
	}, nil
}

// annotate performs one batch annotation request for a single image.
func (c *Client) annotate(ctx context.Context, image []byte, feature *visionapi.Feature) (*visionapi.AnnotateImageResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	batch := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image:    &visionapi.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*visionapi.Feature{feature},
		}},
	}

	resp, err := c.svc.Images.Annotate(batch).Context(ctx).Do()
	if err != nil {
		return nil, errors.New(fmt.Errorf("annotate request (%s): %w", feature.Type, err)).
			Component("vision").
			Category(errors.CategoryVisionAPI).
			Context("feature", feature.Type).
			Build()
	}
	if len(resp.Responses) == 0 {
		return nil, errors.Newf("annotate request (%s): empty batch response", feature.Type).
			Component("vision").
			Category(errors.CategoryVisionAPI).
			Build()
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return nil, errors.Newf("annotate request (%s): service error %d: %s",
			feature.Type, r.Error.Code, r.Error.Message).
			Component("vision").
			Category(errors.CategoryVisionAPI).
			Build()
	}

	return r, nil
}
