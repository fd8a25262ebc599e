package products

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, id uint) (Product, error)
	// ListPurchasable returns non-deleted, enabled products among ids whose
	// payment type allows the requested mode.
	ListPurchasable(ctx context.Context, ids []uint, subscriptionMode bool) ([]Product, error)

	GetMeta(ctx context.Context, productID uint, name string) (string, error)
	SetMeta(ctx context.Context, productID uint, name, value string) error
}

type GormRepo struct{ db *gorm.DB }

func NewGormRepo(db *gorm.DB) *GormRepo { return &GormRepo{db: db} }

func (r *GormRepo) Get(ctx context.Context, id uint) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).First(&p, "id = ? AND deleted = 0", id).Error
	return p, err
}

func (r *GormRepo) ListPurchasable(ctx context.Context, ids []uint, subscriptionMode bool) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	types := []int{PaymentTypeSingle, PaymentTypeBoth}
	if subscriptionMode {
		types = []int{PaymentTypeSubscription, PaymentTypeBoth}
	}

	var items []Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND disabled = 0 AND deleted = 0 AND payment_type IN ?", ids, types).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// GetMeta returns "" when the key is not set for the product.
func (r *GormRepo) GetMeta(ctx context.Context, productID uint, name string) (string, error) {
	var m ProductMeta
	err := r.db.WithContext(ctx).First(&m, "product_id = ? AND name = ?", productID, name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Value, nil
}

func (r *GormRepo) SetMeta(ctx context.Context, productID uint, name, value string) error {
	res := r.db.WithContext(ctx).Model(&ProductMeta{}).
		Where("product_id = ? AND name = ?", productID, name).
		Updates(map[string]any{"value": value})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ProductMeta{
		ProductID: productID,
		Name:      name,
		Value:     value,
	}).Error
}
