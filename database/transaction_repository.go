package database

import (
	"context"

	"github.com/40acres/fossad/database/models"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	RecordTransaction(ctx context.Context, tx *models.AtmTransaction) error
	ListTransactions(ctx context.Context, deviceIDs []string) ([]*models.AtmTransaction, error)
	DeleteTransaction(ctx context.Context, id uint) error
}

// RecordTransaction appends a ledger row for a terminal session. Conflicts on
// the session key are dropped so duplicate terminal signals never produce a
// second row.
func (d *Database) RecordTransaction(ctx context.Context, tx *models.AtmTransaction) error {
	return d.orm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoNothing: true,
		}).
		Create(tx).Error
}

func (d *Database) ListTransactions(ctx context.Context, deviceIDs []string) ([]*models.AtmTransaction, error) {
	if len(deviceIDs) == 0 {
		return []*models.AtmTransaction{}, nil
	}

	var txs []*models.AtmTransaction
	err := d.orm.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (d *Database) DeleteTransaction(ctx context.Context, id uint) error {
	return d.orm.WithContext(ctx).Delete(&models.AtmTransaction{}, id).Error
}
