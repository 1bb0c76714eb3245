package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vitalia"
)

// StatusError is a non-2xx response. The body is kept for diagnostics only;
// it is not guaranteed to be JSON.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TRANSPORT: %s: %s", e.Status, e.Body)
}

// Client posts JSON payloads and decodes JSON responses. It knows nothing
// about prompts; every failure, including an undecodable body, is retried.
type Client struct {
	httpClient vitalia.HTTPClient
	retrier    *Retrier
}

func NewClient(httpClient vitalia.HTTPClient, policy Policy) *Client {
	return &Client{
		httpClient: httpClient,
		retrier:    NewRetrier(policy),
	}
}

// Send posts payload to endpoint and decodes the response body into out.
func (c *Client) Send(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, span := otel.Tracer(vitalia.TracerNameTransport).Start(ctx, "Transport.Send",
		trace.WithAttributes(attribute.Int("payload_bytes", len(body))))
	defer span.End()

	err = c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.post(ctx, endpoint, body, out)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return redactURL(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return redactURL(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// redactURL masks the query values and userinfo of the URL carried by a
// *url.Error. Endpoints may hold credentials in the query string.
func redactURL(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}

	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return &url.Error{Op: uerr.Op, URL: "[unparseable url]", Err: uerr.Err}
	}
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			q.Set(k, "REDACTED")
		}
		u.RawQuery = q.Encode()
	}
	u.User = nil
	return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
}
