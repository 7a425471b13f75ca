// Package safety scores downloaded images against an external classifier
// service. The textual blocklist runs earlier in the pipeline; this stage
// catches what text alone cannot.
package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// Scorer talks to an HTTP classifier that returns an unsafe-probability for
// an image. Callers decide what to do when the service is unreachable; this
// client only reports errors.
type Scorer struct {
	endpoint  string
	threshold float64
	http      *http.Client
}

var _ harvest.ImageScorer = (*Scorer)(nil)

// NewScorer creates a reusable client. Images scoring at or above threshold
// are reported unsafe.
func NewScorer(endpoint string, threshold float64) *Scorer {
	return &Scorer{
		endpoint:  endpoint,
		threshold: threshold,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Score submits the image bytes and converts the returned probability into
// a verdict using the configured threshold.
func (s *Scorer) Score(ctx context.Context, data []byte) (harvest.Verdict, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return harvest.Verdict{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.http.Do(req)
	if err != nil {
		return harvest.Verdict{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return harvest.Verdict{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body struct {
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return harvest.Verdict{}, fmt.Errorf("decode response: %w", err)
	}

	return harvest.Verdict{
		Unsafe: body.Score >= s.threshold,
		Score:  body.Score,
	}, nil
}

// NoOpScorer approves every image. It stands in when classification is
// disabled so the download path stays branchless.
type NoOpScorer struct{}

var _ harvest.ImageScorer = (*NoOpScorer)(nil)

func (NoOpScorer) Score(context.Context, []byte) (harvest.Verdict, error) {
	return harvest.Verdict{}, nil
}
