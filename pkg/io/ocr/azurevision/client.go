// Package azurevision reads printed and handwritten text from images with the
// Azure Computer Vision Read v3.2 API.
package azurevision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

const (
	analyzePath    = "vision/v3.2/read/analyze"
	keyHeader      = "Ocp-Apim-Subscription-Key"
	locationHeader = "Operation-Location"

	statusSucceeded = "succeeded"
	statusFailed    = "failed"
)

var (
	ErrNotConfigured     = errors.New("Azure Vision API endpoint or key not configured")
	ErrMissingLocation   = errors.New("Missing Operation-Location header")
	ErrOperationFailed   = errors.New("OCR operation failed")
	ErrOperationTimedOut = errors.New("OCR operation timed out or did not succeed")
)

// APIError is a non-2xx answer to the analyze request.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return "Azure Vision API error: " + e.Body
}

type readLine struct {
	Text string `json:"text"`
}

type readResult struct {
	Page  int        `json:"page"`
	Lines []readLine `json:"lines"`
}

type operation struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []readResult `json:"readResults"`
	} `json:"analyzeResult"`
}

type Client struct {
	endpoint     string
	key          string
	pollAttempts int
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *Logger.Logger
}

type Options struct {
	PollAttempts int
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// New returns a client for endpoint (e.g. https://<name>.cognitiveservices.azure.com/).
func New(endpoint, key string, opts Options, logger *Logger.Logger) *Client {
	if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 10
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = Logger.NewNop()
	}
	return &Client{
		endpoint:     endpoint,
		key:          key,
		pollAttempts: opts.PollAttempts,
		pollInterval: opts.PollInterval,
		httpClient:   opts.HTTPClient,
		logger:       logger,
	}
}

func (c *Client) Configured() bool {
	return c.endpoint != "" && c.key != ""
}

// Read submits image and polls the operation until it settles. Every
// recognized line is followed by a newline; an image without text yields "".
func (c *Client) Read(ctx context.Context, image []byte) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	location, err := c.submit(ctx, image)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		op, err := c.poll(ctx, location)
		if err != nil {
			return "", err
		}
		switch op.Status {
		case statusSucceeded:
			return op.text(), nil
		case statusFailed:
			return "", ErrOperationFailed
		}
		c.logger.Debugf("ocr operation %s, attempt %d/%d", op.Status, attempt+1, c.pollAttempts)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return "", ErrOperationTimedOut
}

func (c *Client) submit(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+analyzePath, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set(keyHeader, c.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	location := resp.Header.Get(locationHeader)
	if location == "" {
		return "", ErrMissingLocation
	}
	return location, nil
}

func (c *Client) poll(ctx context.Context, location string) (*operation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set(keyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll operation: %w", err)
	}
	defer resp.Body.Close()

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return &op, nil
}

func (o *operation) text() string {
	var b strings.Builder
	for _, page := range o.AnalyzeResult.ReadResults {
		for _, line := range page.Lines {
			b.WriteString(line.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
