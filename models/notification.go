package models

import (
	"context"
	"strings"
	"time"

	"github.com/wiredpart/parts_backend/utils"
)

// Notification is emitted by the ledger; delivery belongs to whoever reads it.
// A nil UserId is a broadcast to every user.
type Notification struct {
	ID         int                  `gorm:"primary_key" json:"id"`
	UserId     *int                 `gorm:"index" json:"user_id"`
	Title      string               `gorm:"size:255;not null" json:"title"`
	Message    string               `gorm:"type:text;not null" json:"message"`
	Severity   NotificationSeverity `gorm:"size:10;not null" json:"severity"`
	Source     string               `gorm:"size:50;not null" json:"source"`
	TargetTab  string               `gorm:"size:50" json:"target_tab"`
	TargetData string               `gorm:"size:255" json:"target_data"`
	IsRead     bool                 `gorm:"not null;index" json:"is_read"`
	User       *User                `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

type NewNotification struct {
	UserId     *int                 `json:"user_id"`
	Title      string               `json:"title" validate:"required,max=255"`
	Message    string               `json:"message" validate:"required"`
	Severity   NotificationSeverity `json:"severity"`
	Source     string               `json:"source" validate:"max=50"`
	TargetTab  string               `json:"target_tab" validate:"max=50"`
	TargetData string               `json:"target_data" validate:"max=255"`
}

func (tx *Tx) CreateNotification(input *NewNotification) (*Notification, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	if input.Severity == "" {
		input.Severity = NotificationSeverityInfo
	}
	if !isValidEnum(input.Severity, notificationSeverities) {
		return nil, utils.ValidationError("invalid notification severity %q", input.Severity)
	}
	if input.Source == "" {
		input.Source = "system"
	}
	if input.UserId != nil {
		if _, err := fetch[User](tx.db, *input.UserId, "user"); err != nil {
			return nil, err
		}
	}
	notification := Notification{
		UserId:     input.UserId,
		Title:      input.Title,
		Message:    input.Message,
		Severity:   input.Severity,
		Source:     input.Source,
		TargetTab:  input.TargetTab,
		TargetData: input.TargetData,
	}
	if err := tx.db.Create(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (s *Store) CreateNotification(ctx context.Context, input *NewNotification) (*Notification, error) {
	return inTx(s, ctx, "CreateNotification", func(tx *Tx) (*Notification, error) {
		return tx.CreateNotification(input)
	})
}

// UserNotifications returns the user's own notifications and broadcasts, newest first.
func (s *Store) UserNotifications(ctx context.Context, userId int, unreadOnly bool) ([]Notification, error) {
	db := s.read(ctx).Where("user_id = ? OR user_id IS NULL", userId)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}
	var rows []Notification
	err := db.Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (s *Store) UnreadNotificationCount(ctx context.Context, userId int) (int64, error) {
	var n int64
	err := s.read(ctx).Model(&Notification{}).
		Where("(user_id = ? OR user_id IS NULL) AND is_read = ?", userId, false).
		Count(&n).Error
	return n, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id int) error {
	return s.withTransaction(ctx, "MarkNotificationRead", func(tx *Tx) error {
		res := tx.db.Model(&Notification{}).Where("id = ?", id).Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.NotFound("notification %d not found", id)
		}
		return nil
	})
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userId int) (int64, error) {
	return inTx(s, ctx, "MarkAllNotificationsRead", func(tx *Tx) (int64, error) {
		res := tx.db.Model(&Notification{}).
			Where("(user_id = ? OR user_id IS NULL) AND is_read = ?", userId, false).
			Update("is_read", true)
		return res.RowsAffected, res.Error
	})
}
