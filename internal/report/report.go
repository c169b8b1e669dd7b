// Package report posts readings to a remote collector over HTTP(S).
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// DefaultTimeout bounds one report request.
const DefaultTimeout = 5 * time.Second

// Reporter sends a reading to a remote service.
type Reporter interface {
	Report(ctx context.Context, r logic.Reading) error
}

// Payload is the JSON body posted for each reading.
type Payload struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Type        string  `json:"type"`
}

// FormatPayload creates the JSON body for a reading from the sensor called name.
func FormatPayload(name string, r logic.Reading) ([]byte, error) {
	return json.Marshal(Payload{
		Name:        name,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Type:        "sensor",
	})
}

// HTTPReporter posts readings as JSON.
type HTTPReporter struct {
	url    string
	name   string
	client *http.Client
}

// NewHTTPReporter creates a reporter posting to url. A zero timeout uses
// DefaultTimeout.
func NewHTTPReporter(url, name string, timeout time.Duration) *HTTPReporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPReporter{
		url:    url,
		name:   name,
		client: &http.Client{Timeout: timeout},
	}
}

// Report posts r. Any non-2xx response is an error.
func (h *HTTPReporter) Report(ctx context.Context, r logic.Reading) error {
	body, err := FormatPayload(h.name, r)
	if err != nil {
		return errors.Wrap(err, "format report")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build report request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post report")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("post report: unexpected status %s", resp.Status)
	}
	return nil
}

// FakeReporter records reports for test assertions.
type FakeReporter struct {
	// Readings contains all readings that were reported.
	Readings []logic.Reading

	// ReportError, if set, will be returned by Report.
	ReportError error
}

// Report records r.
func (f *FakeReporter) Report(_ context.Context, r logic.Reading) error {
	if f.ReportError != nil {
		return f.ReportError
	}
	f.Readings = append(f.Readings, r)
	return nil
}
