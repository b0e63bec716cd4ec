// Package weather fetches historical hourly observations from the Open-Meteo
// archive API for a fixed coordinate.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

	dateLayout = "2006-01-02"
	hourLayout = "2006-01-02T15:04"
)

var (
	ErrNoObservations = errors.New("no hourly observations in response")
	ErrRaggedResponse = errors.New("hourly arrays have mismatched lengths")
	ErrMaxRetries     = errors.New("max retries exceeded")
)

// Observation is one hourly weather sample. DidRain is derived from
// precipitation rather than reported by the API.
type Observation struct {
	T               time.Time // truncated to the hour, UTC
	TemperatureC    float64
	PrecipitationMm float64
	WindspeedMph    float64
	DidRain         bool
}

// Client queries the Open-Meteo hourly archive.
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	httpClient *http.Client
	retries    int
}

// NewClient returns a weather client for the given coordinate. An empty
// baseURL falls back to the public Open-Meteo archive endpoint.
func NewClient(baseURL string, latitude, longitude float64, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if retries < 1 {
		retries = 1
	}
	return &Client{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: retries,
	}
}

type hourlyResponse struct {
	Hourly struct {
		Time          []string   `json:"time"`
		Temperature2M []*float64 `json:"temperature_2m"`
		Precipitation []*float64 `json:"precipitation"`
		Windspeed10M  []*float64 `json:"windspeed_10m"`
	} `json:"hourly"`
	Reason string `json:"reason"`
}

// Hourly fetches hourly temperature, precipitation, and windspeed covering
// [start, end]. Hours with a missing value in any variable are skipped; the
// fusion fallback handles the gap downstream.
func (c *Client) Hourly(ctx context.Context, start, end time.Time) ([]Observation, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse weather base url, %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	q.Set("start_date", start.UTC().Format(dateLayout))
	q.Set("end_date", end.UTC().Format(dateLayout))
	q.Set("hourly", "temperature_2m,precipitation,windspeed_10m")
	u.RawQuery = q.Encode()

	body, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp hourlyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unable to decode weather response, %w", err)
	}
	if resp.Reason != "" {
		return nil, fmt.Errorf("weather api error: %s", resp.Reason)
	}

	h := resp.Hourly
	if len(h.Time) == 0 {
		return nil, ErrNoObservations
	}
	if len(h.Temperature2M) != len(h.Time) ||
		len(h.Precipitation) != len(h.Time) ||
		len(h.Windspeed10M) != len(h.Time) {
		return nil, ErrRaggedResponse
	}

	obs := make([]Observation, 0, len(h.Time))
	for i, raw := range h.Time {
		t, err := time.ParseInLocation(hourLayout, raw, time.UTC)
		if err != nil {
			continue
		}
		if h.Temperature2M[i] == nil || h.Precipitation[i] == nil || h.Windspeed10M[i] == nil {
			continue
		}
		precip := *h.Precipitation[i]
		obs = append(obs, Observation{
			T:               t.Truncate(time.Hour),
			TemperatureC:    *h.Temperature2M[i],
			PrecipitationMm: precip,
			WindspeedMph:    *h.Windspeed10M[i],
			DidRain:         precip > 0,
		})
	}
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}
	return obs, nil
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

		body, err := func() ([]byte, error) {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("weather api server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("weather api status %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w, %v", ErrMaxRetries, lastErr)
}
