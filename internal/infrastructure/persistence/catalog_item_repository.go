package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bidhub/backend/internal/domain/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/bidhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogItemRepository implements catalog.CatalogItemRepository using GORM
type GormCatalogItemRepository struct {
	db *gorm.DB
}

// NewGormCatalogItemRepository creates a new GormCatalogItemRepository
func NewGormCatalogItemRepository(db *gorm.DB) *GormCatalogItemRepository {
	return &GormCatalogItemRepository{db: db}
}

// FindByNaturalKey finds an item by natural key, active or not
func (r *GormCatalogItemRepository) FindByNaturalKey(ctx context.Context, naturalKey string) (*catalog.CatalogItem, error) {
	var m models.CatalogItemModel
	if err := r.db.WithContext(ctx).Where("natural_key = ?", naturalKey).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// ListActive returns one page of active items in listing order
func (r *GormCatalogItemRepository) ListActive(ctx context.Context, now time.Time, page shared.PageRequest) (shared.Paginated[catalog.CatalogItem], error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.CatalogItemModel{}).Where("active = ?", true), now, page)
}

// Search returns one page of active items matching criteria in listing order
func (r *GormCatalogItemRepository) Search(ctx context.Context, criteria catalog.SearchCriteria, now time.Time, page shared.PageRequest) (shared.Paginated[catalog.CatalogItem], error) {
	query := r.db.WithContext(ctx).Model(&models.CatalogItemModel{}).Where("active = ?", true)
	query = applySearchCriteria(query, criteria.Normalized())
	return r.page(ctx, query, now, page)
}

// CountActive counts active items
func (r *GormCatalogItemRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CatalogItemModel{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormCatalogItemRepository) page(ctx context.Context, query *gorm.DB, now time.Time, page shared.PageRequest) (shared.Paginated[catalog.CatalogItem], error) {
	page = page.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paginated[catalog.CatalogItem]{}, err
	}

	var rows []models.CatalogItemModel
	if total > int64(page.Offset()) {
		if err := query.Session(&gorm.Session{}).
			Order(listingOrder(now)).
			Offset(page.Offset()).
			Limit(page.PageSize).
			Find(&rows).Error; err != nil {
			return shared.Paginated[catalog.CatalogItem]{}, err
		}
	}

	items := make([]catalog.CatalogItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return shared.NewPaginated(items, total, page.Page, page.PageSize), nil
}

// listingOrder mirrors catalog.ListingLess in SQL: started items by announcement
// descending, then upcoming items ascending, then items without an announcement,
// with the natural key as the final tie-break.
func listingOrder(now time.Time) clause.OrderBy {
	now = now.UTC()
	return clause.OrderBy{Expression: clause.Expr{
		SQL: "CASE WHEN announcement_at IS NULL THEN 2 WHEN announcement_at <= ? THEN 0 ELSE 1 END ASC, " +
			"CASE WHEN announcement_at <= ? THEN announcement_at END DESC, " +
			"CASE WHEN announcement_at > ? THEN announcement_at END ASC, " +
			"natural_key ASC",
		Vars:               []any{now, now, now},
		WithoutParentheses: true,
	}}
}

func applySearchCriteria(query *gorm.DB, c catalog.SearchCriteria) *gorm.DB {
	if c.Title != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(c.Title))+"%")
	}
	if c.IssuingMethod != "" {
		query = query.Where("issuing_method = ?", c.IssuingMethod)
	}
	for _, part := range c.Region {
		query = query.Where(`LOWER(address) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(part))+"%")
	}
	if c.PriceFrom != nil {
		query = query.Where("initial_floor_from >= ?", *c.PriceFrom)
	}
	if c.PriceTo != nil {
		query = query.Where("initial_floor_from <= ?", *c.PriceTo)
	}
	if c.AppraisedFrom != nil {
		query = query.Where("appraised_value >= ?", *c.AppraisedFrom)
	}
	if c.AppraisedTo != nil {
		query = query.Where("appraised_value <= ?", *c.AppraisedTo)
	}
	if c.AnnouncementFrom != nil {
		query = query.Where("announcement_at >= ?", c.AnnouncementFrom.UTC())
	}
	if c.ClosesUntil != nil {
		query = query.Where("closes_at <= ?", c.ClosesUntil.UTC())
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ catalog.CatalogItemRepository = (*GormCatalogItemRepository)(nil)
