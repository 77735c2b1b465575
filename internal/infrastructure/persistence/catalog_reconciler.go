package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reconcileChunkSize = 500

// GormCatalogReconciler merges feed batches into catalog_items in one transaction
type GormCatalogReconciler struct {
	db     *gorm.DB
	logger *zap.Logger
	clock  func() time.Time
}

// NewGormCatalogReconciler creates a new GormCatalogReconciler
func NewGormCatalogReconciler(db *gorm.DB, logger *zap.Logger) *GormCatalogReconciler {
	return &GormCatalogReconciler{
		db:     db,
		logger: logger.Named("reconciler"),
		clock:  time.Now,
	}
}

// Reconcile inserts unseen natural keys, refreshes known ones and, unless
// opts.Partial is set, deactivates active rows missing from records.
// floor_price is never written. Any error rolls the whole batch back.
func (r *GormCatalogReconciler) Reconcile(ctx context.Context, records []catalog.FeedRecord, opts catalog.ReconcileOptions) (catalog.ReconcileResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = r.clock()
	}
	now = now.UTC()

	var result catalog.ReconcileResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.CatalogItemModel
		if err := tx.Find(&existing).Error; err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		byKey := make(map[string]*models.CatalogItemModel, len(existing))
		for i := range existing {
			byKey[existing[i].NaturalKey] = &existing[i]
		}

		seen := make(map[string]struct{}, len(records))
		var inserts []*models.CatalogItemModel
		var untouched []uuid.UUID

		for _, rec := range records {
			if !rec.HasNaturalKey() {
				continue
			}
			if _, dup := seen[rec.NaturalKey]; dup {
				continue
			}
			seen[rec.NaturalKey] = struct{}{}

			row, ok := byKey[rec.NaturalKey]
			if !ok {
				item, err := catalog.NewCatalogItemFromRecord(rec, now)
				if err != nil {
					return err
				}
				inserts = append(inserts, models.CatalogItemModelFromDomain(item))
				continue
			}

			item := row.ToDomain()
			if !item.ApplyRecord(rec, now) {
				untouched = append(untouched, item.ID)
				continue
			}
			updated := models.CatalogItemModelFromDomain(item)
			if err := tx.Model(&models.CatalogItemModel{}).
				Where("id = ?", item.ID).
				UpdateColumns(updated.FeedColumns()).Error; err != nil {
				return fmt.Errorf("update %s: %w", item.NaturalKey, err)
			}
			result.Updated++
		}

		if len(inserts) > 0 {
			if err := tx.CreateInBatches(inserts, reconcileChunkSize).Error; err != nil {
				return fmt.Errorf("insert catalog items: %w", err)
			}
			result.Inserted = len(inserts)
		}

		for _, chunk := range chunkIDs(untouched, reconcileChunkSize) {
			if err := tx.Model(&models.CatalogItemModel{}).
				Where("id IN ? AND last_synced_at < ?", chunk, now).
				UpdateColumn("last_synced_at", now).Error; err != nil {
				return fmt.Errorf("touch catalog items: %w", err)
			}
		}
		result.Unchanged = len(untouched)

		if opts.Partial {
			return nil
		}

		var stale []uuid.UUID
		for i := range existing {
			if _, ok := seen[existing[i].NaturalKey]; !ok && existing[i].Active {
				stale = append(stale, existing[i].ID)
			}
		}
		for _, chunk := range chunkIDs(stale, reconcileChunkSize) {
			res := tx.Model(&models.CatalogItemModel{}).
				Where("id IN ? AND active = ?", chunk, true).
				UpdateColumns(map[string]any{"active": false, "updated_at": now})
			if res.Error != nil {
				return fmt.Errorf("deactivate catalog items: %w", res.Error)
			}
			result.Deactivated += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Reconcile rolled back", zap.Int("records", len(records)), zap.Error(err))
		return catalog.ReconcileResult{}, err
	}

	r.logger.Debug("Reconcile committed",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("deactivated", result.Deactivated),
		zap.Bool("partial", opts.Partial),
	)
	return result, nil
}

func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

var _ catalog.Reconciler = (*GormCatalogReconciler)(nil)
