// Package model provides ScoringFunction adapters: wrappers that turn a
// concrete classifier — a model-serving HTTP endpoint or the in-process
// baseline — into the scorer capability the explanation engines consume.
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"creditscope/internal/dataset"
)

// Remote scores rows against a model served over HTTP. The endpoint is
// expected to accept POST {"rows": [[...]]} and answer
// {"predictions": [...]} — the contract most sklearn/XGBoost serving shims
// expose for batch inference.
type Remote struct {
	base string
	rest *resty.Client
}

type predictRequest struct {
	Rows [][]float64 `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// NewRemote creates a remote scorer for the given base URL.
func NewRemote(base string, timeout time.Duration) *Remote {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Remote{base: base, rest: r}
}

// Score implements explain.Scorer.
func (m *Remote) Score(ctx context.Context, ds *dataset.Dataset) ([]float64, error) {
	req := predictRequest{Rows: ds.RowsMatrix()}
	resp := &predictResponse{}

	httpResp, err := m.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(resp).
		Post(m.base + "/predict")
	if err != nil {
		return nil, fmt.Errorf("remote scorer: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("remote scorer: %s returned %s", m.base, httpResp.Status())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("remote scorer: %s", resp.Error)
	}
	if len(resp.Predictions) != ds.Rows() {
		return nil, fmt.Errorf("remote scorer: %d predictions for %d rows", len(resp.Predictions), ds.Rows())
	}
	return resp.Predictions, nil
}

// Health probes the endpoint's health route; used at service startup.
func (m *Remote) Health(ctx context.Context) error {
	resp, err := m.rest.R().SetContext(ctx).Get(m.base + "/health")
	if err != nil {
		return fmt.Errorf("remote scorer health: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("remote scorer health: %s", resp.Status())
	}
	log.Debug().Str("base", m.base).Msg("remote scorer healthy")
	return nil
}
