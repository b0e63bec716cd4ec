// Package tide fetches predicted tide heights from the NOAA CO-OPS data API
// for a fixed station at hourly interval.
package tide

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	DefaultBaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

	dateLayout       = "20060102"
	predictionLayout = "2006-01-02 15:04"
)

var (
	ErrNoPredictions = errors.New("no predictions in response")
	ErrMaxRetries    = errors.New("max retries exceeded")
)

// Prediction is one hourly predicted tide height.
type Prediction struct {
	T        time.Time // truncated to the hour, UTC
	HeightFt float64
}

// Client queries the CO-OPS predictions product.
type Client struct {
	baseURL    string
	station    string
	datum      string
	units      string
	httpClient *http.Client
	retries    int
}

// NewClient returns a tide client for the given station. An empty baseURL
// falls back to the public NOAA endpoint.
func NewClient(baseURL, station string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retries < 1 {
		retries = 1
	}
	return &Client{
		baseURL: baseURL,
		station: station,
		datum:   "MLLW",
		units:   "english",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: retries,
	}
}

type predictionsResponse struct {
	Predictions []struct {
		T string `json:"t"`
		V string `json:"v"`
	} `json:"predictions"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Predictions fetches hourly tide predictions covering [start, end].
// Entries with unparseable timestamps or heights are skipped.
func (c *Client) Predictions(ctx context.Context, start, end time.Time) ([]Prediction, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse tide base url, %w", err)
	}

	q := u.Query()
	q.Set("product", "predictions")
	q.Set("begin_date", start.UTC().Format(dateLayout))
	q.Set("end_date", end.UTC().Format(dateLayout))
	q.Set("datum", c.datum)
	q.Set("station", c.station)
	q.Set("time_zone", "gmt")
	q.Set("units", c.units)
	q.Set("interval", "hour")
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp predictionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unable to decode tide response, %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("tide api error: %s", resp.Error.Message)
	}
	if len(resp.Predictions) == 0 {
		return nil, ErrNoPredictions
	}

	preds := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		t, err := time.ParseInLocation(predictionLayout, p.T, time.UTC)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(p.V, 64)
		if err != nil {
			continue
		}
		preds = append(preds, Prediction{T: t.Truncate(time.Hour), HeightFt: v})
	}
	if len(preds) == 0 {
		return nil, ErrNoPredictions
	}
	return preds, nil
}

func (c *Client) doRequest(ctx context.Context, urlStr string) ([]byte, error) {
	var lastErr error
	for i := 0; i < c.retries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := readAll(resp)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("tide api server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("tide api status %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w, %v", ErrMaxRetries, lastErr)
}
