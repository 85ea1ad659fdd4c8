package owlet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propertiesV3 = `[
  {"property": {"name": "REAL_TIME_VITALS", "value": "{\"ox\":97,\"hr\":128,\"st\":365,\"bat\":80,\"chg\":0,\"ss\":2,\"mst\":1700000000,\"bso\":1,\"sc\":1}", "data_updated_at": "2024-03-01T10:00:00Z"}},
  {"property": {"name": "CHARGE_STATUS", "value": 0, "data_updated_at": "2024-03-01T09:00:00Z"}},
  {"property": {"name": "LOW_OX_ALRT", "value": 1, "data_updated_at": "2024-03-01T10:05:00Z"}},
  {"property": {"name": "UNRELATED", "value": "x", "data_updated_at": "bogus"}}
]`

func newTestCloud(t *testing.T, token string) (*httptest.Server, *[]string) {
	t.Helper()
	var commands []string

	mux := http.NewServeMux()
	mux.HandleFunc("/users/sign_in.json", func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.User.Password != "secret-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"` + token + `","expires_in":86400}`))
	})
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "auth_token "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		return true
	}
	mux.HandleFunc("/apiv1/devices.json", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`[
		  {"device": {"product_name": "Nursery", "dsn": "AC000W1", "model": "AY001MTL1", "oem_model": "OS-SS3", "connection_status": "Online", "sw_version": "1.2", "mac": "aa:bb", "lan_ip": "10.0.0.2"}},
		  {"device": {"product_name": "Travel", "dsn": "AC000W2", "model": "AY001MTL1", "connection_status": "Offline"}}
		]`))
	})
	mux.HandleFunc("/apiv1/dsns/AC000W1/properties.json", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(propertiesV3))
	})
	mux.HandleFunc("/apiv1/dsns/AC000W2/properties.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/apiv1/dsns/AC000W1/properties/BASE_STATION_ON_CMD/datapoints.json", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		body, _ := io.ReadAll(r.Body)
		commands = append(commands, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &commands
}

func testCredentials(srv *httptest.Server, password string) Credentials {
	return Credentials{
		User:     "parent@example.com",
		Password: password,
		Region:   DefaultRegion,
		UserURL:  srv.URL,
		APIURL:   srv.URL + "/apiv1",
	}
}

func TestClientListAndSnapshot(t *testing.T) {
	srv, _ := newTestCloud(t, "tok-1")
	c := NewClient(testCredentials(srv, "secret-pass"))
	ctx := context.Background()

	require.NoError(t, c.Authenticate(ctx))

	devices, err := c.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Nursery", devices[0].Name)
	assert.Equal(t, "AC000W1", devices[0].Serial)
	assert.Equal(t, "OS-SS3", devices[0].OEMModel)
	assert.True(t, devices[0].Online())
	assert.Equal(t, "AC000W2", devices[1].Serial)

	snap, err := c.Snapshot(ctx, devices[0])
	require.NoError(t, err)
	assert.Equal(t, 3, snap.SockVersion)
	assert.Equal(t, 128, snap.HeartRate.Value)
	assert.Equal(t, 97, snap.OxygenSaturation.Value)
	assert.Equal(t, 365.0, snap.SkinTemperature.Value)
	assert.Equal(t, 2, snap.SleepState.Value)
	assert.False(t, snap.Charging.Value)
	assert.True(t, snap.Charging.Reported)
	assert.True(t, snap.Active(AlertLowOxygen))
	assert.Equal(t, "2024-03-01T10:05:00Z", snap.LastUpdated.Value)

	_, err = c.Snapshot(ctx, devices[1])
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClientAuthenticationFailures(t *testing.T) {
	srv, _ := newTestCloud(t, "tok-1")
	ctx := context.Background()

	c := NewClient(testCredentials(srv, "wrong"))
	assert.ErrorIs(t, c.Authenticate(ctx), ErrAuthentication)

	_, err := c.ListDevices(ctx)
	assert.ErrorIs(t, err, ErrAuthentication)

	missing := NewClient(Credentials{Region: DefaultRegion})
	assert.ErrorIs(t, missing.Authenticate(ctx), ErrAuthentication)
}

func TestClientUnreachable(t *testing.T) {
	srv, _ := newTestCloud(t, "tok-1")
	creds := testCredentials(srv, "secret-pass")
	srv.Close()

	err := NewClient(creds).Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClientSetBaseStation(t *testing.T) {
	srv, commands := newTestCloud(t, "tok-1")
	c := NewClient(testCredentials(srv, "secret-pass"))
	ctx := context.Background()
	require.NoError(t, c.Authenticate(ctx))

	require.NoError(t, c.SetBaseStation(ctx, Device{Serial: "AC000W1"}, true))
	require.NoError(t, c.SetBaseStation(ctx, Device{Serial: "AC000W1"}, false))
	require.Len(t, *commands, 2)
	assert.JSONEq(t, `{"datapoint":{"value":1}}`, (*commands)[0])
	assert.JSONEq(t, `{"datapoint":{"value":0}}`, (*commands)[1])

	require.NoError(t, c.Close())
	_, err := c.ListDevices(ctx)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestDecodePropertiesV2(t *testing.T) {
	props, version, err := decodeProperties([]byte(`[
	  {"property": {"name": "HEART_RATE", "value": 140}},
	  {"property": {"name": "OXYGEN_LEVEL", "value": 93}},
	  {"property": {"name": "CHARGE_STATUS", "value": 1}},
	  {"property": {"name": "SOCK_OFF", "value": 1}}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.Equal(t, float64(140), props["heart_rate"])
	assert.Equal(t, float64(93), props["oxygen_saturation"])
	assert.Equal(t, float64(1), props["sock_off"])
	assert.NotContains(t, props, "last_updated")

	_, _, err = decodeProperties([]byte(`{"not":"a list"}`))
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
