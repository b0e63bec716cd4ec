package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "42.39", q.Get("latitude"))
		assert.Equal(t, "-71.03", q.Get("longitude"))
		assert.Equal(t, "2024-05-01", q.Get("start_date"))
		assert.Equal(t, "temperature_2m,precipitation,windspeed_10m", q.Get("hourly"))

		w.Write([]byte(`{"hourly":{
			"time":["2024-05-01T10:00","2024-05-01T11:00","2024-05-01T12:00"],
			"temperature_2m":[15.0,16.2,null],
			"precipitation":[0.2,0.0,0.0],
			"windspeed_10m":[8.0,9.5,7.0]
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 42.39, -71.03, time.Second, 1)
	obs, err := c.Hourly(context.Background(),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	require.Nil(t, err)

	expected := []Observation{
		{
			T:               time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			TemperatureC:    15.0,
			PrecipitationMm: 0.2,
			WindspeedMph:    8.0,
			DidRain:         true,
		},
		{
			T:               time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
			TemperatureC:    16.2,
			PrecipitationMm: 0.0,
			WindspeedMph:    9.5,
			DidRain:         false,
		},
	}
	assert.Equal(t, expected, obs)
}

func TestHourlyRagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{
			"time":["2024-05-01T10:00","2024-05-01T11:00"],
			"temperature_2m":[15.0],
			"precipitation":[0.0,0.0],
			"windspeed_10m":[8.0,9.0]
		}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 42.39, -71.03, time.Second, 1)
	_, err := c.Hourly(context.Background(), time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, ErrRaggedResponse)
}

func TestHourlyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":true,"reason":"Latitude must be in range"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 442.39, -71.03, time.Second, 1)
	_, err := c.Hourly(context.Background(), time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestHourlyEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly":{"time":[],"temperature_2m":[],"precipitation":[],"windspeed_10m":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 42.39, -71.03, time.Second, 1)
	_, err := c.Hourly(context.Background(), time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, ErrNoObservations)
}
