package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wiredpart/parts_backend/utils"
	"gorm.io/gorm"
)

// Category groups parts for browsing and search. Parts keep a nullable
// reference, so removing a category leaves its parts uncategorized.
type Category struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// stock categories every new database starts with
var defaultCategories = []NewCategory{
	{"Wire & Cable", "Electrical wiring, cables, and conductors"},
	{"Conduit & Fittings", "Conduit, connectors, and fittings"},
	{"Boxes & Enclosures", "Junction boxes, panels, and enclosures"},
	{"Switches & Outlets", "Switches, receptacles, and plates"},
	{"Breakers & Fuses", "Circuit breakers, fuses, and protection devices"},
	{"Lighting", "Light fixtures, bulbs, and components"},
	{"Connectors & Terminals", "Wire nuts, terminals, and connectors"},
	{"Tools & Supplies", "Tape, lubricant, and consumables"},
	{"Motors & Controls", "Motors, starters, and control equipment"},
	{"Miscellaneous", "Other electrical parts"},
}

// seedCategories inserts whichever stock categories are missing. Rows that
// already exist are left alone, renamed descriptions included.
func seedCategories(db *gorm.DB) error {
	for _, c := range defaultCategories {
		row := Category{Name: c.Name, Description: c.Description}
		if err := db.Where(Category{Name: c.Name}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	return nil
}

func (tx *Tx) CreateCategory(input *NewCategory) (*Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := tx.validateStruct(input); err != nil {
		return nil, err
	}
	var count int64
	if err := tx.db.Model(&Category{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ValidationError("category %s already exists", input.Name)
	}
	category := Category{Name: input.Name, Description: strings.TrimSpace(input.Description)}
	if err := tx.db.Create(&category).Error; err != nil {
		return nil, err
	}
	if err := tx.createHistory(historyActionCreate, category.ID, "categories", nil, category,
		fmt.Sprintf("Category %s created.", category.Name)); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {
	return inTx(s, ctx, "CreateCategory", func(tx *Tx) (*Category, error) {
		return tx.CreateCategory(input)
	})
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.read(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	var category Category
	err := s.read(ctx).Where("name = ?", strings.TrimSpace(name)).Limit(1).Find(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, utils.NotFound("category %s not found", name)
	}
	return &category, nil
}

// PartsByCategory lists the category's parts, archived ones included, by part number.
func (s *Store) PartsByCategory(ctx context.Context, categoryId int) ([]Part, error) {
	if _, err := fetch[Category](s.read(ctx), categoryId, "category"); err != nil {
		return nil, err
	}
	var parts []Part
	err := s.read(ctx).Preload("Category").
		Where("category_id = ?", categoryId).
		Order("part_number").
		Find(&parts).Error
	return parts, err
}

// checkCategory reports NotFound for a category id that does not exist.
func (tx *Tx) checkCategory(categoryId *int) error {
	if categoryId == nil {
		return nil
	}
	_, err := fetch[Category](tx.db, *categoryId, "category")
	return err
}
