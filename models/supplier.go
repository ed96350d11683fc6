package models

import (
	"context"
	"strings"
	"time"

	"github.com/wiredpart/parts_backend/utils"
)

type Supplier struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	ContactName string    `gorm:"size:255" json:"contact_name"`
	Email       string    `gorm:"size:255" json:"email"`
	Phone       string    `gorm:"size:50" json:"phone"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name        string `json:"name" validate:"required,max=255"`
	ContactName string `json:"contact_name" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=50"`
}

func (tx *Tx) CreateSupplier(input *NewSupplier) (*Supplier, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	var count int64
	if err := tx.db.Model(&Supplier{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ValidationError("supplier %s already exists", input.Name)
	}
	supplier := Supplier{
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		IsActive:    true,
	}
	if err := tx.db.Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	return inTx(s, ctx, "CreateSupplier", func(tx *Tx) (*Supplier, error) {
		return tx.CreateSupplier(input)
	})
}

func (s *Store) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var suppliers []Supplier
	err := s.read(ctx).Where("is_active = ?", true).Order("name").Find(&suppliers).Error
	return suppliers, err
}

func (s *Store) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return fetch[Supplier](s.read(ctx), id, "supplier")
}

func (tx *Tx) requireSupplier(id int) (*Supplier, error) {
	if id <= 0 {
		return nil, utils.ValidationError("supplier_id is required")
	}
	return fetch[Supplier](tx.db, id, "supplier")
}
