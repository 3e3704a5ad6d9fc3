package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillment-backend/pkg/validators"
)

const defaultListIndex = "ux_price_lists_default_type"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PriceLists is the pair of lists a user's order is priced against. Either
// may be nil, in which case options price at their own values.
type PriceLists struct {
	Wholesale *models.PriceList
	Retail    *models.PriceList
}

// Service owns catalog writes and price list resolution.
type Service struct {
	repo   *Repository
	tx     txRunner
	outbox outbox.Emitter
	logg   *logger.Logger
}

func NewService(repo *Repository, tx txRunner, emitter outbox.Emitter, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Service{repo: repo, tx: tx, outbox: emitter, logg: logg}, nil
}

// CreateProduct stores a new product with its option tree.
func (s *Service) CreateProduct(ctx context.Context, actor users.Actor, input CreateProductInput) (*models.Product, error) {
	if err := actor.Require(enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if !input.Unit.IsValid() || !input.ProductGroup.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit or product group")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative").
			WithDetails(map[string]string{"base_price": "must be at least 0"})
	}
	for _, g := range input.OptionGroups {
		for _, it := range g.Items {
			if it.Multiplier.Valid && it.Multiplier.Decimal.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "multiplier must not be negative")
			}
		}
	}

	product, err := s.repo.CreateProduct(ctx, input.toModel())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

// Product loads a product with its option tree.
func (s *Service) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err, "product")
	}
	return product, nil
}

// CreatePriceList adds an empty, non-default list.
func (s *Service) CreatePriceList(ctx context.Context, actor users.Actor, input CreatePriceListInput) (*models.PriceList, error) {
	if err := actor.Require(enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price list type")
	}
	if input.DistributorID != nil && input.Type != enums.PriceBasisWholesale {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only wholesale lists can belong to a distributor")
	}
	list, err := s.repo.CreatePriceList(ctx, &models.PriceList{
		Name:          input.Name,
		Type:          input.Type,
		DistributorID: input.DistributorID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create price list")
	}
	return list, nil
}

// SetDefaultPriceList makes id the single default list of its type.
func (s *Service) SetDefaultPriceList(ctx context.Context, actor users.Actor, id uuid.UUID) (*models.PriceList, error) {
	if err := actor.Require(enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	var list *models.PriceList
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindPriceListForUpdate(ctx, id)
		if err != nil {
			return mapLoadErr(err, "price list")
		}
		if found.IsDefault {
			list = found
			return nil
		}
		if err := repo.MakeDefault(ctx, found.ID, found.Type, time.Now().UTC()); err != nil {
			if db.IsUniqueViolation(err, defaultListIndex) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another default was set concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default price list")
		}
		found.IsDefault = true
		list = found
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPriceListDefaultChanged,
			AggregateType: enums.AggregatePriceList,
			AggregateID:   found.ID,
			Actor:         actor.Ref(),
			Data: payloads.PriceListDefaultChangedEvent{
				PriceListID: found.ID,
				Type:        found.Type,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"price_list_id": list.ID.String(), "type": list.Type})
		s.logg.Info(logCtx, "price_list.default_changed")
	}
	return list, nil
}

// SetPriceListItem upserts one option override on a list.
func (s *Service) SetPriceListItem(ctx context.Context, actor users.Actor, input SetPriceListItemInput) (*models.PriceListItem, error) {
	if err := actor.Require(enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if input.Multiplier.Valid && input.Multiplier.Decimal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "multiplier must not be negative").
			WithDetails(map[string]string{"multiplier": "must be at least 0"})
	}
	item := &models.PriceListItem{
		PriceListID:  input.PriceListID,
		OptionItemID: input.OptionItemID,
		Price:        input.Price,
		Multiplier:   input.Multiplier,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindPriceListForUpdate(ctx, input.PriceListID); err != nil {
			return mapLoadErr(err, "price list")
		}
		if _, err := repo.FindOptionItem(ctx, input.OptionItemID); err != nil {
			return mapLoadErr(err, "option item")
		}
		if err := repo.UpsertPriceListItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert price list item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ResolvePriceLists picks the lists an order placed by user is priced against:
// the distributor's wholesale list or the default wholesale list, and the
// default retail list.
func (s *Service) ResolvePriceLists(ctx context.Context, user *models.User) (PriceLists, error) {
	var lists PriceLists
	if user == nil {
		return lists, pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}

	if distributorID := user.DistributorRef(); distributorID != nil {
		list, err := s.repo.FindDistributorPriceList(ctx, *distributorID, enums.PriceBasisWholesale)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return lists, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor price list")
		}
		lists.Wholesale = list
	}
	if lists.Wholesale == nil {
		list, err := s.findDefault(ctx, enums.PriceBasisWholesale)
		if err != nil {
			return lists, err
		}
		lists.Wholesale = list
	}

	retail, err := s.findDefault(ctx, enums.PriceBasisRetail)
	if err != nil {
		return lists, err
	}
	lists.Retail = retail
	return lists, nil
}

// Products loads every product in ids; a missing id is a not-found error.
func (s *Service) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	products, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": id.String()})
		}
	}
	return products, nil
}

func (s *Service) findDefault(ctx context.Context, listType enums.PriceBasis) (*models.PriceList, error) {
	list, err := s.repo.FindDefaultPriceList(ctx, listType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default price list")
	}
	return list, nil
}

func mapLoadErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
