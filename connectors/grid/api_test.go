package grid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drplan/auth"
)

func gridAPI(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"grid-token","token_type":"bearer","expires_in":3600}`))
	})
	check := func(w http.ResponseWriter, r *http.Request) bool {
		if wantAuth != "" && r.Header.Get("Authorization") != wantAuth {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return false
		}
		return true
	}
	mux.HandleFunc("/grid/current", func(w http.ResponseWriter, r *http.Request) {
		if !check(w, r) {
			return
		}
		w.Write([]byte(`{"timestamp":"2025-07-15T12:00:00Z","system_load_mw":68000,"reserves_mw":12000,"price_per_mwh":110}`))
	})
	mux.HandleFunc("/grid/forecast", func(w http.ResponseWriter, r *http.Request) {
		if !check(w, r) {
			return
		}
		if r.URL.Query().Get("hours") != "24" {
			http.Error(w, "bad hours", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"timestamp":"2025-07-15T12:00:00Z","peak_load_mw":74000,"peak_hour":17,"confidence":0.92}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIClient_Load(t *testing.T) {
	srv := gridAPI(t, "")
	c := NewAPIClient(srv.URL+"/grid/", nil, time.Second)
	data, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 110.0, *data.Snapshot.PricePerMWh)
	assert.Equal(t, 17, *data.Forecast.PeakHour)
	assert.Equal(t, 0.92, *data.Forecast.Confidence)
}

func TestAPIClient_BearerToken(t *testing.T) {
	srv := gridAPI(t, "Bearer grid-token")
	cred := auth.NewClientCred(auth.Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL + "/token"})
	c := NewAPIClient(srv.URL+"/grid", cred, time.Second)
	data, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, data.Available())

	_, err = NewAPIClient(srv.URL+"/grid", nil, time.Second).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestAPIClient_ForecastHours(t *testing.T) {
	srv := gridAPI(t, "")
	c := NewAPIClient(srv.URL+"/grid", nil, time.Second)
	require.NoError(t, WithForecastHours(48)(c))
	_, err := c.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, WithForecastHours(0)(c))
	assert.Error(t, WithForecastHours(24)(NewFileSource("x")))
}
