package sink

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// HTTPSink is the default REST-role sink: a POST of the payload to a
// configured URL. 2xx is success; any transport error or non-2xx status
// is a soft failure, leaving retry decisions to the orchestrator.
type HTTPSink struct {
	role    model.SinkRole
	url     string
	client  *http.Client
	limiter Acquirer
}

// NewHTTPSink builds an HTTP sink bound to one rate limiter.
func NewHTTPSink(role model.SinkRole, url string, limiter Acquirer) *HTTPSink {
	return &HTTPSink{
		role: role,
		url:  url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

func (s *HTTPSink) Role() model.SinkRole { return s.role }

func (s *HTTPSink) Send(ctx context.Context, payload model.Payload) (bool, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
