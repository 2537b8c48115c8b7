package projection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

// previewPath is appended to the engine base URL.
const previewPath = "/projection/preview"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Client sends unsaved planned changes to the projection engine and returns the
// projected portfolio values.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a projection client for the engine at baseURL.
// A zero timeout leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ResponseError is returned when the engine answers with a non-2xx status.
// Fields holds per-field messages when the engine reported them.
type ResponseError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("projection engine returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("projection engine returned status %d: %s", e.StatusCode, e.Message)
}

// errorBody is the engine's error payload. Details is either a field map or free text.
type errorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// Preview requests a projection for pc.
//
// Returns:
//   - model.Projection: Projected values, Points is never nil
//   - error: *ResponseError for non-2xx answers, or a transport/decoding error
func (c *Client) Preview(ctx context.Context, pc model.PlannedChange) (model.Projection, error) {
	body, err := json.Marshal(pc)
	if err != nil {
		return model.Projection{}, fmt.Errorf("failed to encode planned change: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+previewPath, bytes.NewReader(body))
	if err != nil {
		return model.Projection{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Projection{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Projection{}, decodeError(resp)
	}

	var projection model.Projection
	if err := json.NewDecoder(resp.Body).Decode(&projection); err != nil {
		return model.Projection{}, fmt.Errorf("failed to decode projection: %w", err)
	}
	if projection.Points == nil {
		projection.Points = []model.ProjectionPoint{}
	}

	return projection, nil
}

func decodeError(resp *http.Response) error {
	respErr := &ResponseError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return respErr
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		respErr.Message = strings.TrimSpace(string(data))
		return respErr
	}
	respErr.Message = body.Error

	if len(body.Details) > 0 {
		var fields map[string]string
		if err := json.Unmarshal(body.Details, &fields); err == nil && len(fields) > 0 {
			respErr.Fields = fields
		} else {
			var detail string
			if err := json.Unmarshal(body.Details, &detail); err == nil && detail != "" {
				if respErr.Message == "" {
					respErr.Message = detail
				} else {
					respErr.Message += ": " + detail
				}
			}
		}
	}

	return respErr
}
