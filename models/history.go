package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wiredpart/parts_backend/utils"
)

// History is the activity trail. Rows are written in the same transaction as
// the change they describe.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ActionType    string    `gorm:"size:20;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index:idx_history_reference" json:"reference_id"`
	ReferenceType string    `gorm:"size:64;index:idx_history_reference" json:"reference_type"`
	ActorId       *int      `gorm:"index" json:"actor_id"`
	ActorName     string    `gorm:"size:100" json:"actor_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	historyActionCreate  = "create"
	historyActionUpdate  = "update"
	historyActionDelete  = "delete"
	historyActionStatus  = "status"
	historyActionMove    = "move"
	historyActionReceive = "receive"
)

func (tx *Tx) createHistory(
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) error {

	var history History

	if before != nil {
		b, _ := json.Marshal(before)
		history.Before = string(b)
	}
	if after != nil {
		a, _ := json.Marshal(after)
		history.After = string(a)
	}

	history.ActionType = actionType
	history.Description = description
	history.ReferenceID = referenceId
	history.ReferenceType = referenceType
	history.ActorId = utils.ActingUserId(tx.ctx)
	if name, ok := utils.GetUserNameFromContext(tx.ctx); ok {
		history.ActorName = name
	} else {
		history.ActorName = "system"
	}

	return tx.db.Create(&history).Error
}

// GetHistory lists the trail of one entity, newest first.
func (s *Store) GetHistory(ctx context.Context, referenceType string, referenceId int) ([]History, error) {
	var rows []History
	err := s.read(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}
