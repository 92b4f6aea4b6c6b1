// Package client contains the HTTP JSON clients for the order and
// inventory collaborators.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 64 << 10

// errServerStatus marks a 5xx answer so the breaker counts it as a failure
// while the response itself still reaches the caller.
var errServerStatus = errors.New("server error status")

type Options struct {
	// Timeout bounds health pings and catalog reads. Order creation is
	// bounded by the caller's context alone. Zero means no client bound.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit. Zero disables the breaker.
	BreakerFailures uint32
	// BreakerOpenFor is how long the circuit stays open before a trial call.
	BreakerOpenFor time.Duration
	Transport      http.RoundTripper
	Logger         *slog.Logger
}

type base struct {
	name    string
	baseURL string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
}

func newBase(name, baseURL string, opts Options) *base {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	b := &base{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: opts.Timeout,
		http:    &http.Client{Transport: otelhttp.NewTransport(transport)},
		logger:  logger.With("collaborator", name),
	}

	if opts.BreakerFailures > 0 {
		openFor := opts.BreakerOpenFor
		if openFor <= 0 {
			openFor = 30 * time.Second
		}
		failures := opts.BreakerFailures
		b.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				b.logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
			},
		})
	}
	return b
}

func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *base) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", b.name, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", b.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := middleware.GetReqID(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}
	return req, nil
}

// do sends req through the circuit breaker. Any response, whatever its
// status, is returned without error. An open circuit is ErrUnavailable; any
// other absence of a response is an ErrTransport.
func (b *base) do(req *http.Request) (*http.Response, error) {
	call := func() (*http.Response, error) {
		resp, err := b.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	}

	var (
		resp *http.Response
		err  error
	)
	if b.breaker != nil {
		resp, err = b.breaker.Execute(call)
	} else {
		resp, err = call()
	}

	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s circuit open: %w", ErrUnavailable, b.name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// ping is a GET that bypasses the breaker: a probe has to reach the
// collaborator to tell whether it recovered.
func (b *base) ping(ctx context.Context, path string) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	req, err := b.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, readMessage(resp.Body))
	}
	return nil
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// readMessage extracts the {message} field of an error body, if any.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body messageBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
