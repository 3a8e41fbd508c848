// Package modelserver implements the prediction contract against a remote
// model-inference server (the trained checkpoint lives behind an HTTP API,
// typically a Python process serving the torch model).
package modelserver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/adelgado/quantbt/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRatePerSec = 20
)

// Client calls a model server's /predict endpoint. Requests are
// rate-limited so a parameter sweep of parallel backtests cannot overload
// the inference process.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a Client for the given base URL. ratePerSec <= 0 uses
// the default limit.
func NewClient(baseURL string, ratePerSec float64) *Client {
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

type predictRequest struct {
	Window []float64 `json:"window"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

// Predict posts the normalized window and returns the predicted normalized
// next value. The window's placeholder target is deliberately not sent —
// the model only ever sees the 32 feature values.
func (c *Client) Predict(ctx context.Context, window domain.NormalizedWindow) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("modelserver.Predict: %w", err)
	}

	var out predictResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(predictRequest{Window: window.Values[:]}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return 0, fmt.Errorf("modelserver.Predict: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("modelserver.Predict: server returned %s: %s", resp.Status(), resp.String())
	}

	return out.Prediction, nil
}
