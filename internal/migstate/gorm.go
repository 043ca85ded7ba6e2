package migstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// flagRecord is one durable flag row.
type flagRecord struct {
	Key       string    `gorm:"primaryKey;column:flag_key;size:191"`
	Value     string    `gorm:"column:flag_value;size:64;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	UpdatedBy string    `gorm:"column:updated_by;size:255"`
}

func (flagRecord) TableName() string { return "migration_flags" }

// OpenGorm opens the flag database. driver is sqlite, postgres or mysql.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported state driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s state store: %w", driver, err)
	}
	return db, nil
}

// GormStore keeps flags in the migration_flags table. Conditional writes
// rely on single-row UPDATE and INSERT being atomic in the database.
type GormStore struct {
	db    *gorm.DB
	owner string
}

// NewGormStore creates the flag table if needed.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&flagRecord{}); err != nil {
		return nil, fmt.Errorf("migrate flag table: %w", err)
	}
	return &GormStore{db: db, owner: instanceID()}, nil
}

// OpenGormStore opens the flag database and prepares its table. The pool
// is closed again if the table cannot be prepared.
func OpenGormStore(driver, dsn string) (*GormStore, error) {
	db, err := OpenGorm(driver, dsn)
	if err != nil {
		return nil, err
	}
	return ownGormStore(db)
}

func ownGormStore(db *gorm.DB) (*GormStore, error) {
	store, err := NewGormStore(db)
	if err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return store, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var rec flagRecord
	err := s.db.WithContext(ctx).Where("flag_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Value, true, nil
}

func (s *GormStore) SetUnlessEqual(ctx context.Context, key, value string) (bool, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	res := db.Model(&flagRecord{}).
		Where("flag_key = ? AND flag_value <> ?", key, value).
		Updates(map[string]interface{}{"flag_value": value, "updated_at": now, "updated_by": s.owner})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// No row to flip: either it is absent or it already holds value.
	// Insert-or-fail decides between racing sessions.
	err := db.Create(&flagRecord{Key: key, Value: value, UpdatedAt: now, UpdatedBy: s.owner}).Error
	if err == nil {
		return true, nil
	}
	current, ok, getErr := s.Get(ctx, key)
	if getErr != nil {
		return false, fmt.Errorf("%v (after insert error: %w)", getErr, err)
	}
	if ok && current == value {
		return false, nil
	}
	return false, err
}

func (s *GormStore) DeleteIfEqual(ctx context.Context, key, value string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("flag_key = ? AND flag_value = ?", key, value).
		Delete(&flagRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("flag_key = ?", key).Delete(&flagRecord{}).Error
}

// Owner returns the host:pid that last wrote the flag.
func (s *GormStore) Owner(ctx context.Context, key string) (string, error) {
	var rec flagRecord
	err := s.db.WithContext(ctx).Where("flag_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return rec.UpdatedBy, err
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
