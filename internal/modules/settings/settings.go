package settings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one key/value row of the store configuration. Gateway
// credentials and webhook keys live here and are read at request time.
type Setting struct {
	Name      string    `gorm:"type:varchar(128);primaryKey"`
	Value     string    `gorm:"type:varchar(512);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Setting) TableName() string { return "store_settings" }

// Store reads and writes store configuration keys.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	SetMultiple(ctx context.Context, values map[string]string) error
}

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Get returns "" when the key has never been set.
func (r *Repo) Get(ctx context.Context, name string) (string, error) {
	var s Setting
	err := r.db.WithContext(ctx).First(&s, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *Repo) SetMultiple(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for name, value := range values {
			s := Setting{Name: name, Value: value, UpdatedAt: now}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&s).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
