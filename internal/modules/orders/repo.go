package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
)

type Repository interface {
	Get(ctx context.Context, id uint) (Order, error)
	GetItems(ctx context.Context, orderID uint) ([]OrderItem, error)
	CreateFromCart(ctx context.Context, sc *cart.ShoppingCart, r *cart.Recipient, email string) (Order, error)
	// SetStatus moves the order to the given status. Orders in a terminal
	// status are left untouched.
	SetStatus(ctx context.Context, id uint, status string) error
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Get(ctx context.Context, id uint) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) GetItems(ctx context.Context, orderID uint) ([]OrderItem, error) {
	var items []OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// CreateFromCart snapshots the priced cart into an order plus its line
// items in a single transaction.
func (r *Repo) CreateFromCart(ctx context.Context, sc *cart.ShoppingCart, recipient *cart.Recipient, email string) (Order, error) {
	items := sc.Items()
	if len(items) == 0 {
		return Order{}, ErrCartEmpty
	}

	now := time.Now()
	o := Order{
		Email:         email,
		Description:   items[0].Product.Name,
		SubtotalCents: sc.TotalCents(),
		DiscountCents: sc.TotalDiscountCents(recipient),
		TotalCents:    sc.TotalRealPriceCents(recipient),
		Currency:      items[0].Product.Currency,
		Subscription:  sc.IsSubscriptionMode(),
		Status:        StatusCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if recipient != nil {
		o.CustomerID = recipient.CustomerID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		for _, it := range items {
			fields := ""
			if len(it.Fields) > 0 {
				if b, err := json.Marshal(it.Fields); err == nil {
					fields = string(b)
				}
			}
			oi := OrderItem{
				OrderID:    o.ID,
				ProductID:  it.Product.ID,
				Name:       it.Product.Name,
				PriceCents: it.Product.PriceCents,
				Quantity:   it.Quantity,
				FieldsJSON: fields,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

var terminal = map[string]bool{
	StatusRefunded:  true,
	StatusReversed:  true,
	StatusCancelled: true,
}

func (r *Repo) SetStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses()).
		Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
}

func terminalStatuses() []string {
	out := make([]string, 0, len(terminal))
	for s := range terminal {
		out = append(out, s)
	}
	return out
}
