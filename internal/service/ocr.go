package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const ocrTimeout = 60 * time.Second

// shortKeys maps long-form OCR field names to the short-key aliases the
// collaborator may emit to reduce token usage. The long form wins when
// both are present.
var shortKeys = map[string]string{
	"date":          "d",
	"amount":        "t",
	"tax":           "x",
	"description":   "s",
	"category":      "c",
	"invoiceNumber": "n",
}

// Fields is the raw field map returned by the OCR collaborator.
type Fields map[string]any

// Text returns the string value for key, consulting the short-key alias
// table. Missing or null values become "".
func (f Fields) Text(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		if alias, has := shortKeys[key]; has {
			v, ok = f[alias]
		}
		if !ok || v == nil {
			return ""
		}
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

// Number returns the numeric value for key, consulting the short-key
// alias table. Missing, null or malformed values become 0.
func (f Fields) Number(key string) float64 {
	v, ok := f[key]
	if !ok || v == nil {
		if alias, has := shortKeys[key]; has {
			v, ok = f[alias]
		}
		if !ok || v == nil {
			return 0
		}
	}
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return CoerceNumber(n)
	}
	return 0
}

// OCRClient calls the invoice-recognition collaborator. The collaborator
// is a black box: one POST carrying the compressed image, one JSON field
// map (long-form or short-key) back.
type OCRClient struct {
	baseURL string
	client  *http.Client
}

func NewOCRClient(baseURL string) *OCRClient {
	return &OCRClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: ocrTimeout},
	}
}

// Recognize submits one compressed image (data URL) and returns the
// extracted field map. Any non-success response, timeout or parse error
// is an OCR failure.
func (c *OCRClient) Recognize(ctx context.Context, image string) (Fields, error) {
	payload, err := json.Marshal(map[string]string{"image": image})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/ocr", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(body))
	}

	var fields Fields
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return fields, nil
}
