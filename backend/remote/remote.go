// Package remote talks to an HTTP super-resolution service.
//
// Endpoints, relative to the base URL:
//
//	POST /v1/models/{weights}/load?family={family}   make the weights resident
//	POST /v1/models/{weights}/upscale[?patch={n}]    image/png in, image out
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lon9/supres-go/supres"
)

// RequestIDHeader carries a per-request uuid.
const RequestIDHeader = "X-Request-ID"

// Loader binds models on a remote service.
type Loader struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

// NewLoader returns a Loader for the service at endpoint. timeout bounds each
// request; 0 leaves requests bounded only by their context.
func NewLoader(endpoint string, timeout time.Duration) (*Loader, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("remote: empty endpoint")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("remote: bad endpoint: %w", err)
	}
	// Client timeout stays 0; deadlines come from per-request contexts.
	return &Loader{endpoint: endpoint, timeout: timeout, client: &http.Client{}}, nil
}

// Load asks the service to make ws resident.
func (l *Loader) Load(ctx context.Context, family supres.Family, ws supres.WeightSet) (supres.Model, error) {
	q := url.Values{"family": {string(family)}}
	resp, cancel, err := l.do(ctx, l.url(ws, "load", q), nil, "")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", supres.ErrModelUnavailable, ws)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return &Model{l: l, weights: ws}, nil
}

// Model is a weight set resident on the service.
type Model struct {
	l       *Loader
	weights supres.WeightSet
}

// Upscale posts img as PNG and decodes the response.
func (m *Model) Upscale(ctx context.Context, img image.Image, patchSize int) (image.Image, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, err
	}
	q := url.Values{}
	if patchSize > 0 {
		q.Set("patch", strconv.Itoa(patchSize))
	}

	resp, cancel, err := m.l.do(ctx, m.l.url(m.weights, "upscale", q), &body, "image/png")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	res, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}

func (l *Loader) url(ws supres.WeightSet, action string, q url.Values) string {
	u := l.endpoint + "/v1/models/" + url.PathEscape(string(ws)) + "/" + action
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do issues a POST. The returned cancel must be called after the body is read.
func (l *Loader) do(ctx context.Context, u string, body io.Reader, contentType string) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "image/png, image/jpeg")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := l.client.Do(req)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("remote http error: %s: %s", resp.Status, strings.TrimSpace(string(b)))
}
