package models

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	moduleName    = "models"
	ledgerLockKey = "ledger"
)

// Store owns the database handle and is the only way into the ledger.
type Store struct {
	db       *gorm.DB
	settings *config.Settings
	locker   utils.StockLocker
	logger   *logrus.Logger
	validate *validator.Validate
	tracer   trace.Tracer
	now      func() time.Time
}

func NewStore(db *gorm.DB, settings *config.Settings, locker utils.StockLocker, logger *logrus.Logger) *Store {
	if locker == nil {
		locker = utils.NewLocalStockLocker()
	}
	if logger == nil {
		logger = config.NewLogger("error")
	}
	return &Store{
		db:       db,
		settings: settings,
		locker:   locker,
		logger:   logger,
		validate: newValidator(),
		tracer:   otel.Tracer("github.com/wiredpart/parts_backend/models"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Settings() *config.Settings {
	return s.settings
}

// Validate checks input's validate tags the same way ledger operations do.
func (s *Store) Validate(input any) error {
	return validateInput(s.validate, input)
}

// Tx is one all-or-nothing unit of work. Every ledger mutation runs on a Tx, and
// operations that call each other share the same one.
type Tx struct {
	db       *gorm.DB
	ctx      context.Context
	settings *config.Settings
	validate *validator.Validate
	now      time.Time
}

func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// DB exposes the transaction handle for reads that must see uncommitted writes.
func (tx *Tx) DB() *gorm.DB {
	return tx.db
}

func (tx *Tx) forUpdate() *gorm.DB {
	return tx.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// WithTransaction runs fn in a single database transaction while holding the
// stock lock. fn's error rolls everything back and is returned unchanged.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	return s.withTransaction(ctx, "WithTransaction", fn)
}

func (s *Store) withTransaction(ctx context.Context, funcName string, fn func(tx *Tx) error) (err error) {
	ctx, span := s.tracer.Start(ctx, moduleName+"."+funcName)
	defer span.End()

	release, err := s.locker.Lock(ctx, ledgerLockKey)
	if err != nil {
		config.LogError(s.logger, moduleName, funcName, "obtain stock lock", nil, err)
		return err
	}
	defer release()

	db := s.db.WithContext(ctx).Begin()
	if db.Error != nil {
		config.LogError(s.logger, moduleName, funcName, "begin transaction", nil, db.Error)
		return db.Error
	}
	// always rollback on panic so the connection is not left holding locks
	defer func() {
		if r := recover(); r != nil {
			_ = db.Rollback().Error
			panic(r)
		}
	}()

	tx := &Tx{
		db:       db,
		ctx:      ctx,
		settings: s.settings,
		validate: s.validate,
		now:      s.now(),
	}
	if err = fn(tx); err != nil {
		_ = db.Rollback().Error
		if !utils.IsLedgerError(err) {
			span.RecordError(err)
			config.LogError(s.logger, moduleName, funcName, "transaction rolled back", nil, err)
		}
		return err
	}
	if err = db.Commit().Error; err != nil {
		span.RecordError(err)
		config.LogError(s.logger, moduleName, funcName, "commit transaction", nil, err)
		return err
	}
	return nil
}

func inTx[T any](s *Store, ctx context.Context, funcName string, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := s.withTransaction(ctx, funcName, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (s *Store) read(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput turns validator failures into a ValidationError whose message
// names the first offending field.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return utils.ValidationError("invalid input: %v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return utils.ValidationError("%s is required", fe.Field())
	case "gt":
		if fe.Param() == "0" {
			return utils.ValidationError("%s must be positive", fe.Field())
		}
		return utils.ValidationError("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return utils.ValidationError("%s must not be negative", fe.Field())
		}
		return utils.ValidationError("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return utils.ValidationError("%s is too long (max %s)", fe.Field(), fe.Param())
	case "min":
		return utils.ValidationError("%s needs at least %s entries", fe.Field(), fe.Param())
	default:
		return utils.ValidationError("%s is invalid", fe.Field())
	}
}

func (tx *Tx) validateStruct(input any) error {
	return validateInput(tx.validate, input)
}

// fetchForUpdate loads one row by id with a row lock, mapping a miss to NotFound.
func fetchForUpdate[T any](tx *Tx, id int, what string) (*T, error) {
	var row T
	err := tx.forUpdate().First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("%s %d not found", what, id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func fetch[T any](db *gorm.DB, id int, what string) (*T, error) {
	var row T
	err := db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("%s %d not found", what, id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func exists[T any](db *gorm.DB, id int) (bool, error) {
	var count int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
