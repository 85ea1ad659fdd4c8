package owlet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Session owns a Registry for the life of the process. It signs in lazily,
// caches the device roster until Refresh, and always reads snapshots fresh.
type Session struct {
	registry Registry

	mu            sync.Mutex
	authenticated bool
	devices       []Device

	closeOnce sync.Once
	closeErr  error
}

func NewSession(registry Registry) *Session {
	return &Session{registry: registry}
}

// authenticateLocked signs in if needed. s.mu must be held.
func (s *Session) authenticateLocked(ctx context.Context) error {
	if s.authenticated {
		return nil
	}
	if err := s.registry.Authenticate(ctx); err != nil {
		log.Warn().Err(err).Msg("Owlet authentication failed")
		return err
	}
	s.authenticated = true
	log.Info().Msg("Authenticated with Owlet cloud")
	return nil
}

func (s *Session) noteError(err error) {
	if errors.Is(err, ErrAuthentication) {
		s.mu.Lock()
		s.authenticated = false
		s.mu.Unlock()
	}
}

// Devices returns the roster, listing it from the registry on first use.
// An empty roster is not cached so a newly paired sock shows up.
func (s *Session) Devices(ctx context.Context) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.devices) > 0 {
		return slices.Clone(s.devices), nil
	}

	if err := s.authenticateLocked(ctx); err != nil {
		return nil, err
	}

	devices, err := s.registry.ListDevices(ctx)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			s.authenticated = false
		}
		return nil, err
	}

	s.devices = devices
	log.Info().Int("count", len(devices)).Msg("Device roster loaded")
	return slices.Clone(devices), nil
}

// Device looks a device up by serial in the roster.
func (s *Session) Device(ctx context.Context, serial string) (Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Serial == serial {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
}

// Snapshot reads current telemetry for the device. Results are never cached.
func (s *Session) Snapshot(ctx context.Context, device Device) (Snapshot, error) {
	s.mu.Lock()
	err := s.authenticateLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := s.registry.Snapshot(ctx, device)
	if err != nil {
		s.noteError(err)
		return Snapshot{}, err
	}

	if snap.SockVersion != 0 {
		s.rememberVersion(device.Serial, snap.SockVersion)
	}
	return snap, nil
}

func (s *Session) rememberVersion(serial string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.devices {
		if s.devices[i].Serial == serial {
			s.devices[i].SockVersion = version
		}
	}
}

// SetBaseStation switches the device's base station when the registry supports it.
func (s *Session) SetBaseStation(ctx context.Context, device Device, on bool) error {
	ctrl, ok := s.registry.(BaseStationController)
	if !ok {
		return ErrNotSupported
	}

	s.mu.Lock()
	err := s.authenticateLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := ctrl.SetBaseStation(ctx, device, on); err != nil {
		s.noteError(err)
		return err
	}
	return nil
}

// Refresh drops the cached roster; the next Devices call lists again.
func (s *Session) Refresh() {
	s.mu.Lock()
	s.devices = nil
	s.mu.Unlock()
	log.Info().Msg("Device roster invalidated")
}

// Close releases the registry. Only the first call reaches it.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.registry.Close()
	})
	return s.closeErr
}
