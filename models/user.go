package models

import (
	"context"
	"strings"
	"time"

	"github.com/wiredpart/parts_backend/utils"
)

// User is an actor on the ledger. Authentication lives elsewhere.
type User struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Username    string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:100;not null" json:"display_name"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username    string `json:"username" validate:"required,max=100"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

func (tx *Tx) CreateUser(input *NewUser) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	var count int64
	if err := tx.db.Model(&User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ValidationError("username %s already exists", input.Username)
	}
	user := User{
		Username:    input.Username,
		DisplayName: strings.TrimSpace(input.DisplayName),
		IsActive:    true,
	}
	if err := tx.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	return inTx(s, ctx, "CreateUser", func(tx *Tx) (*User, error) {
		return tx.CreateUser(input)
	})
}

func (s *Store) GetUser(ctx context.Context, id int) (*User, error) {
	return fetch[User](s.read(ctx), id, "user")
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.read(ctx).Where("is_active = ?", true).Order("display_name").Find(&users).Error
	return users, err
}

// actorName is how notifications refer to the user; unknown ids fall back to "Someone".
func (tx *Tx) actorName(userId *int) (string, error) {
	if userId == nil {
		return "Someone", nil
	}
	var user User
	if err := tx.db.Where("id = ?", *userId).Limit(1).Find(&user).Error; err != nil {
		return "", err
	}
	if user.ID == 0 {
		return "Someone", nil
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.Username, nil
}
