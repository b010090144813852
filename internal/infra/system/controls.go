// Package system provides in-memory system volume and brightness controls.
package system

import (
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/domain/device"
)

// Controls holds the system volume and brightness levels. Writing the
// brightness needs the write-settings permission, which can be revoked.
type Controls struct {
	mu         sync.Mutex
	volume     float64
	brightness float64
	canWrite   bool
}

// NewControls creates controls with the given initial levels.
func NewControls(volume, brightness float64, canWriteSettings bool) *Controls {
	return &Controls{
		volume:     device.ClampVolume(volume),
		brightness: device.ClampBrightness(brightness),
		canWrite:   canWriteSettings,
	}
}

// Volume returns the current volume.
func (c *Controls) Volume() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume, nil
}

// SetVolume sets the volume, clamped to the valid range.
func (c *Controls) SetVolume(level float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = device.ClampVolume(level)
	return nil
}

// Brightness returns the current brightness.
func (c *Controls) Brightness() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brightness, nil
}

// SetBrightness sets the brightness, clamped to the valid range.
func (c *Controls) SetBrightness(level float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canWrite {
		return errors.Mark(errors.New("write settings permission not granted"), device.ErrPermissionRequired)
	}
	c.brightness = device.ClampBrightness(level)
	return nil
}

// SetWritePermission grants or revokes the write-settings permission.
func (c *Controls) SetWritePermission(granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canWrite = granted
	zlog.Info().Msgf("system: write settings permission: granted=%t", granted)
}
