package owlet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is a Registry backed by the Ayla device cloud that hosts Owlet accounts.
type Client struct {
	creds     Credentials
	endpoints Region
	http      *http.Client

	mu    sync.RWMutex
	token string
}

var _ Registry = (*Client)(nil)
var _ BaseStationController = (*Client)(nil)

func NewClient(creds Credentials) *Client {
	return &Client{
		creds:     creds,
		endpoints: creds.Endpoints(),
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Authenticate signs in and keeps the access token for later calls.
func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.signIn(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

type deviceEnvelope struct {
	Device struct {
		ProductName      string `json:"product_name"`
		Model            string `json:"model"`
		DSN              string `json:"dsn"`
		OEMModel         string `json:"oem_model"`
		SWVersion        string `json:"sw_version"`
		MAC              string `json:"mac"`
		LANIP            string `json:"lan_ip"`
		ConnectionStatus string `json:"connection_status"`
		DeviceType       string `json:"device_type"`
	} `json:"device"`
}

// ListDevices returns the account's devices in the order the cloud lists them.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	data, err := c.apiRequest(ctx, http.MethodGet, "/devices.json", nil)
	if err != nil {
		return nil, err
	}

	var envelopes []deviceEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal device list: %v", ErrUpstreamUnavailable, err)
	}

	devices := make([]Device, 0, len(envelopes))
	for _, e := range envelopes {
		devices = append(devices, Device{
			Name:             e.Device.ProductName,
			Serial:           e.Device.DSN,
			Model:            e.Device.Model,
			OEMModel:         e.Device.OEMModel,
			SoftwareVersion:  e.Device.SWVersion,
			MACAddress:       e.Device.MAC,
			LANIP:            e.Device.LANIP,
			DeviceType:       e.Device.DeviceType,
			ConnectionStatus: e.Device.ConnectionStatus,
		})
	}

	log.Debug().Int("count", len(devices)).Msg("Listed Owlet devices")
	return devices, nil
}

// Snapshot reads the device's current properties.
func (c *Client) Snapshot(ctx context.Context, device Device) (Snapshot, error) {
	data, err := c.apiRequest(ctx, http.MethodGet, "/dsns/"+url.PathEscape(device.Serial)+"/properties.json", nil)
	if err != nil {
		return Snapshot{}, err
	}

	props, version, err := decodeProperties(data)
	if err != nil {
		return Snapshot{}, err
	}

	s := SnapshotFromProperties(props)
	s.SockVersion = version
	return s, nil
}

// SetBaseStation writes the base station command datapoint.
func (c *Client) SetBaseStation(ctx context.Context, device Device, on bool) error {
	value := 0
	if on {
		value = 1
	}
	payload, err := json.Marshal(map[string]any{
		"datapoint": map[string]any{"value": value},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal datapoint: %w", err)
	}

	endpoint := "/dsns/" + url.PathEscape(device.Serial) + "/properties/BASE_STATION_ON_CMD/datapoints.json"
	if _, err := c.apiRequest(ctx, http.MethodPost, endpoint, payload); err != nil {
		return err
	}

	log.Info().Str("serial", device.Serial).Bool("on", on).Msg("Base station command sent")
	return nil
}

// Close drops the token and idle connections.
func (c *Client) Close() error {
	c.clearToken()
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// apiRequest makes an authenticated request against the API base URL.
func (c *Client) apiRequest(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return nil, fmt.Errorf("%w: not signed in", ErrAuthentication)
	}

	status, data, err := c.do(ctx, method, c.endpoints.APIURL+endpoint, body, token)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.clearToken()
		return nil, fmt.Errorf("%w: token rejected with status %d", ErrAuthentication, status)
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: %s %s returned status %d: %s", ErrUpstreamUnavailable, method, endpoint, status, string(data))
	}

	return data, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "auth_token "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response: %v", ErrUpstreamUnavailable, err)
	}

	return resp.StatusCode, data, nil
}
