package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/40acres/fossad/database/models"
	"gorm.io/gorm"
)

var (
	ErrDeviceNotFound = errors.New("device not found")

	// ErrTokenAlreadyUsed means the pending token matched but was consumed
	// by an earlier submission.
	ErrTokenAlreadyUsed = errors.New("token already used")

	// ErrTokenExpired means the presented token is no longer the device's
	// pending token.
	ErrTokenExpired = errors.New("token expired")
)

//go:generate go tool mockgen -destination=mock.go -package=database . DeviceRepository,TransactionRepository
type DeviceRepository interface {
	SaveDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]*models.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) error
	IssueToken(ctx context.Context, deviceID, token string, issuedAt time.Time) error
	ConsumeToken(ctx context.Context, deviceID, token string) error
}

func (d *Database) SaveDevice(ctx context.Context, device *models.Device) error {
	return d.orm.WithContext(ctx).Save(device).Error
}

func (d *Database) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	err := d.orm.WithContext(ctx).First(&device, "id = ?", deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}

	return &device, nil
}

func (d *Database) ListDevices(ctx context.Context) ([]*models.Device, error) {
	var devices []*models.Device
	if err := d.orm.WithContext(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, err
	}

	return devices, nil
}

func (d *Database) DeleteDevice(ctx context.Context, deviceID string) error {
	return d.orm.WithContext(ctx).Delete(&models.Device{}, "id = ?", deviceID).Error
}

// IssueToken replaces the device's pending token. Any previously issued token
// becomes invalid.
func (d *Database) IssueToken(ctx context.Context, deviceID, token string, issuedAt time.Time) error {
	res := d.orm.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]interface{}{
			"pending_token":   token,
			"token_issued_at": issuedAt,
			"token_used":      false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// ConsumeToken atomically marks the device's pending token as used. Only the
// first caller for a given (device, token) pair succeeds; concurrent or
// repeated submissions observe ErrTokenAlreadyUsed. This is the only critical
// section in the payout path.
func (d *Database) ConsumeToken(ctx context.Context, deviceID, token string) error {
	res := d.orm.WithContext(ctx).Model(&models.Device{}).
		Where("id = ? AND pending_token = ? AND token_used = ?", deviceID, token, false).
		Update("token_used", true)
	if res.Error != nil {
		return fmt.Errorf("failed to consume token: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	device, err := d.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if device.PendingToken == token {
		return ErrTokenAlreadyUsed
	}

	return ErrTokenExpired
}
