package models

import (
	"context"
	"strings"
	"time"

	"github.com/wiredpart/parts_backend/utils"
)

type Truck struct {
	ID             int       `gorm:"primary_key" json:"id"`
	TruckNumber    string    `gorm:"size:50;uniqueIndex;not null" json:"truck_number"`
	Name           string    `gorm:"size:255" json:"name"`
	AssignedUserId *int      `gorm:"index" json:"assigned_user_id"`
	AssignedUser   *User     `gorm:"foreignKey:AssignedUserId;constraint:OnDelete:SET NULL" json:"assigned_user,omitempty"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TruckInventory is the on-hand quantity of one part on one truck. Rows are
// created the first time the truck is credited with the part.
type TruckInventory struct {
	ID          int       `gorm:"primary_key" json:"id"`
	TruckId     int       `gorm:"not null;uniqueIndex:idx_truck_inventory_truck_part" json:"truck_id"`
	PartId      int       `gorm:"not null;uniqueIndex:idx_truck_inventory_truck_part;index" json:"part_id"`
	Quantity    int       `gorm:"not null;default:0;check:chk_truck_inventories_quantity,quantity >= 0" json:"quantity"`
	MinQuantity int       `gorm:"not null;default:0" json:"min_quantity"`
	MaxQuantity int       `gorm:"not null;default:0" json:"max_quantity"`
	Truck       *Truck    `gorm:"foreignKey:TruckId;constraint:OnDelete:CASCADE" json:"-"`
	Part        *Part     `gorm:"foreignKey:PartId;constraint:OnDelete:CASCADE" json:"part,omitempty"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTruck struct {
	TruckNumber    string `json:"truck_number" validate:"required,max=50"`
	Name           string `json:"name" validate:"max=255"`
	AssignedUserId *int   `json:"assigned_user_id"`
}

func (tx *Tx) CreateTruck(input *NewTruck) (*Truck, error) {
	input.TruckNumber = strings.TrimSpace(input.TruckNumber)
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	var count int64
	if err := tx.db.Model(&Truck{}).Where("truck_number = ?", input.TruckNumber).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ValidationError("truck %s already exists", input.TruckNumber)
	}
	if input.AssignedUserId != nil {
		if _, err := fetch[User](tx.db, *input.AssignedUserId, "user"); err != nil {
			return nil, err
		}
	}
	truck := Truck{
		TruckNumber:    input.TruckNumber,
		Name:           input.Name,
		AssignedUserId: input.AssignedUserId,
		IsActive:       true,
	}
	if err := tx.db.Create(&truck).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (s *Store) CreateTruck(ctx context.Context, input *NewTruck) (*Truck, error) {
	return inTx(s, ctx, "CreateTruck", func(tx *Tx) (*Truck, error) {
		return tx.CreateTruck(input)
	})
}

func (tx *Tx) AssignTruck(truckId int, userId *int) (*Truck, error) {
	truck, err := fetchForUpdate[Truck](tx, truckId, "truck")
	if err != nil {
		return nil, err
	}
	if userId != nil {
		if _, err := fetch[User](tx.db, *userId, "user"); err != nil {
			return nil, err
		}
	}
	if err := tx.db.Model(&Truck{}).Where("id = ?", truckId).Update("assigned_user_id", userId).Error; err != nil {
		return nil, err
	}
	truck.AssignedUserId = userId
	return truck, nil
}

func (s *Store) AssignTruck(ctx context.Context, truckId int, userId *int) (*Truck, error) {
	return inTx(s, ctx, "AssignTruck", func(tx *Tx) (*Truck, error) {
		return tx.AssignTruck(truckId, userId)
	})
}

func (s *Store) GetTruck(ctx context.Context, id int) (*Truck, error) {
	var truck Truck
	err := s.read(ctx).Preload("AssignedUser").Where("id = ?", id).Limit(1).Find(&truck).Error
	if err != nil {
		return nil, err
	}
	if truck.ID == 0 {
		return nil, utils.NotFound("truck %d not found", id)
	}
	return &truck, nil
}

func (s *Store) ListTrucks(ctx context.Context) ([]Truck, error) {
	var trucks []Truck
	err := s.read(ctx).Preload("AssignedUser").Where("is_active = ?", true).Order("truck_number").Find(&trucks).Error
	return trucks, err
}

// GetTruckInventory lists the parts currently on a truck.
func (s *Store) GetTruckInventory(ctx context.Context, truckId int) ([]TruckInventory, error) {
	if _, err := fetch[Truck](s.read(ctx), truckId, "truck"); err != nil {
		return nil, err
	}
	var rows []TruckInventory
	err := s.read(ctx).
		Select("truck_inventories.*").
		Preload("Part").
		Joins("JOIN parts ON parts.id = truck_inventories.part_id").
		Where("truck_inventories.truck_id = ? AND truck_inventories.quantity > 0", truckId).
		Order("parts.part_number").
		Find(&rows).Error
	return rows, err
}

func (s *Store) TruckOnHand(ctx context.Context, truckId int, partId int) (int, error) {
	var qty int
	err := s.read(ctx).Model(&TruckInventory{}).
		Where("truck_id = ? AND part_id = ?", truckId, partId).
		Select("COALESCE(SUM(quantity), 0)").Scan(&qty).Error
	return qty, err
}

func (s *Store) GetTruckByNumber(ctx context.Context, truckNumber string) (*Truck, error) {
	var truck Truck
	err := s.read(ctx).Preload("AssignedUser").Where("truck_number = ?", strings.TrimSpace(truckNumber)).Limit(1).Find(&truck).Error
	if err != nil {
		return nil, err
	}
	if truck.ID == 0 {
		return nil, utils.NotFound("truck %s not found", truckNumber)
	}
	return &truck, nil
}
