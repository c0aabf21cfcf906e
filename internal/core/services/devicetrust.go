package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/zonekit/dnshost/internal/core/domain"
	"github.com/zonekit/dnshost/internal/core/ports"
	"github.com/zonekit/dnshost/internal/infrastructure/metrics"
)

// DeviceTrustManager resolves "remembered device" tokens that bypass step-up
// authentication for a bounded period.
type DeviceTrustManager struct {
	store  ports.CredentialStore
	logger *slog.Logger
	now    func() time.Time
}

// NewDeviceTrustManager creates and returns a new DeviceTrustManager instance.
func NewDeviceTrustManager(store ports.CredentialStore, logger *slog.Logger) *DeviceTrustManager {
	return &DeviceTrustManager{store: store, logger: logger, now: time.Now}
}

// Lookup returns the trusted device for (userID, deviceID), or nil when no
// usable device exists. A device past the trust window is deleted as a side
// effect of the lookup and treated as not-found; a usable device has its
// lastUsed refreshed. Both writes are advisory: losing a race or a write
// failure never fails the lookup.
func (m *DeviceTrustManager) Lookup(ctx context.Context, userID, deviceID string) (*domain.TwoFactorDevice, error) {
	if deviceID == "" {
		return nil, nil
	}

	device, err := m.store.GetTwoFactorDevice(ctx, userID, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		metrics.DeviceTrustLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}

	if device.Expired(m.now()) {
		metrics.DeviceTrustLookups.WithLabelValues("expired").Inc()
		if err := m.store.DeleteTwoFactorDevice(ctx, device.ID); err != nil {
			m.logger.Warn("failed to delete expired trusted device", "device", device.ID, "error", err)
		}
		return nil, nil
	}

	now := m.now()
	device.LastUsed = &now
	if err := m.store.SaveTwoFactorDevice(ctx, device); err != nil {
		m.logger.Warn("failed to refresh trusted device", "device", device.ID, "error", err)
	}

	metrics.DeviceTrustLookups.WithLabelValues("hit").Inc()
	return device, nil
}
