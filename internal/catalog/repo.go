package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// Repository persists products and price lists.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateProduct inserts the product with its option groups and items.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	assignProductIDs(product)
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindProduct loads a product with its option groups and items in position order.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.withOptions(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProducts loads every product in ids keyed by id. Missing ids are absent
// from the result.
func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.withOptions(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (r *Repository) withOptions(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("OptionGroups", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("OptionGroups.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// FindOptionItem loads one option item.
func (r *Repository) FindOptionItem(ctx context.Context, id uuid.UUID) (*models.OptionItem, error) {
	var item models.OptionItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreatePriceList(ctx context.Context, list *models.PriceList) (*models.PriceList, error) {
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// FindPriceList loads a price list with its entries.
func (r *Repository) FindPriceList(ctx context.Context, id uuid.UUID) (*models.PriceList, error) {
	var list models.PriceList
	if err := r.db.WithContext(ctx).Preload("Items").First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// FindPriceListForUpdate locks the price list row for the rest of the transaction.
func (r *Repository) FindPriceListForUpdate(ctx context.Context, id uuid.UUID) (*models.PriceList, error) {
	var list models.PriceList
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&list, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// FindDefaultPriceList returns the default list of listType with entries.
func (r *Repository) FindDefaultPriceList(ctx context.Context, listType enums.PriceBasis) (*models.PriceList, error) {
	var list models.PriceList
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("type = ? AND is_default = ?", listType, true).
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// FindDistributorPriceList returns the newest list of listType owned by distributorID.
func (r *Repository) FindDistributorPriceList(ctx context.Context, distributorID uuid.UUID, listType enums.PriceBasis) (*models.PriceList, error) {
	var list models.PriceList
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("distributor_id = ? AND type = ?", distributorID, listType).
		Order("created_at DESC").
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// MakeDefault clears every other default of listType and flags id.
func (r *Repository) MakeDefault(ctx context.Context, id uuid.UUID, listType enums.PriceBasis, at time.Time) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.PriceList{}).
		Where("type = ? AND is_default = ? AND id <> ?", listType, true, id).
		Updates(map[string]any{"is_default": false, "updated_at": at}).Error; err != nil {
		return err
	}
	return db.Model(&models.PriceList{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_default": true, "updated_at": at}).Error
}

// UpsertPriceListItem writes the entry keyed by (price_list_id, option_item_id).
func (r *Repository) UpsertPriceListItem(ctx context.Context, item *models.PriceListItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "price_list_id"}, {Name: "option_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "multiplier", "updated_at"}),
		}).
		Create(item).Error
}

func assignProductIDs(product *models.Product) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for gi := range product.OptionGroups {
		group := &product.OptionGroups[gi]
		if group.ID == uuid.Nil {
			group.ID = uuid.New()
		}
		group.ProductID = product.ID
		for ii := range group.Items {
			item := &group.Items[ii]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OptionGroupID = group.ID
		}
	}
}
