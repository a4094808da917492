package filelu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/filedash/applications/dashboard/config"
	"github.com/donmikel/filedash/applications/dashboard/domain"
	"github.com/donmikel/filedash/applications/dashboard/interfaces"
)

const (
	apiKeyParam = "key"
	// errorSnippetLen bounds how much of a failed response body ends up in errors.
	errorSnippetLen = 256
)

type transport struct {
	baseURL          string
	apiKey           string
	timeout          time.Duration
	maxResponseBytes int64
	client           *http.Client
	logger           log.Logger
}

// NewTransport returns a Transport that attaches the API key to every request
// and bounds every round trip by conf.Timeout. A nil client means a plain
// http.Client; the timeout is applied per call through the request context.
func NewTransport(conf config.FileLu, client *http.Client, logger log.Logger) interfaces.Transport {
	if client == nil {
		client = &http.Client{}
	}

	return &transport{
		baseURL:          strings.TrimRight(conf.BaseURL, "/"),
		apiKey:           conf.APIKey,
		timeout:          conf.Timeout,
		maxResponseBytes: conf.MaxResponseBytes,
		client:           client,
		logger:           logger,
	}
}

func (t *transport) Call(ctx context.Context, endpoint string, params url.Values, out any) error {
	query := cloneValues(params)
	query.Set(apiKeyParam, t.apiKey)
	target := t.baseURL + endpoint + "?" + query.Encode()

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &domain.TransportError{Op: http.MethodGet, URL: redact(target), Err: err}
	}

	return t.do(req, out)
}

func (t *transport) CallFormEncoded(ctx context.Context, endpoint string, body url.Values, out any) error {
	form := cloneValues(body)
	form.Set(apiKeyParam, t.apiKey)
	target := t.baseURL + endpoint

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return &domain.TransportError{Op: http.MethodPost, URL: redact(target), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return t.do(req, out)
}

func (t *transport) UploadBytes(ctx context.Context, destinationURL string, payload domain.MultipartPayload, out any) error {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destinationURL, payload.Body)
	if err != nil {
		payload.Body.Close()
		return &domain.TransportError{Op: http.MethodPost, URL: redact(destinationURL), Err: err}
	}
	req.Header.Set("Content-Type", payload.ContentType)

	return t.do(req, out)
}

func (t *transport) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}

func (t *transport) do(req *http.Request, out any) error {
	target := redact(req.URL.String())
	start := time.Now()

	resp, err := t.client.Do(req)
	if err != nil {
		// url.Error repeats the raw request URL, key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}

		level.Debug(t.logger).Log("msg", "remote call failed",
			"method", req.Method,
			"url", target,
			"err", err,
		)
		return &domain.TransportError{Op: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := readAllWithLimit(resp.Body, t.maxResponseBytes)
	if err != nil {
		return &domain.TransportError{Op: req.Method, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("can't read body: %w", err)}
	}

	level.Debug(t.logger).Log("msg", "remote call",
		"method", req.Method,
		"url", target,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(data))),
		"took", time.Since(start),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.TransportError{Op: req.Method, URL: target, StatusCode: resp.StatusCode, Err: errors.New(snippet(data))}
	}

	if out == nil {
		return nil
	}

	if err = json.Unmarshal(data, out); err != nil {
		return &domain.TransportError{Op: req.Method, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("can't decode body: %w", err)}
	}

	return nil
}

// readAllWithLimit reads r fully; limit <= 0 disables the bound.
func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s", domain.ErrResponseTooLong, humanize.Bytes(uint64(limit)))
	}

	return data, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+1)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// redact hides the API key so URLs can be logged and returned in errors.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}

	q := u.Query()
	if q.Has(apiKeyParam) {
		q.Set(apiKeyParam, "xxxxx")
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func snippet(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) > errorSnippetLen {
		data = data[:errorSnippetLen]
	}
	if len(data) == 0 {
		return "empty body"
	}
	return string(data)
}
