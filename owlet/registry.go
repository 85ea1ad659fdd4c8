package owlet

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mock_registry.go -package=owlet owlet-mcp/owlet Registry

var (
	// ErrAuthentication means the cloud rejected or could not check the credentials.
	ErrAuthentication = errors.New("owlet authentication failed")
	// ErrUpstreamUnavailable covers transport failures and unexpected cloud responses.
	ErrUpstreamUnavailable = errors.New("owlet cloud unavailable")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrNotSupported        = errors.New("operation not supported by registry")
)

// Registry is the device cloud as seen by the servers.
type Registry interface {
	Authenticate(ctx context.Context) error
	ListDevices(ctx context.Context) ([]Device, error)
	Snapshot(ctx context.Context, device Device) (Snapshot, error)
	Close() error
}

// BaseStationController is implemented by registries that can switch a base station.
type BaseStationController interface {
	SetBaseStation(ctx context.Context, device Device, on bool) error
}
