package database

import (
	"fmt"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB opens the pool and brings the schema up to date.
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	return db, nil
}

// Models lists every table in dependency order.
var Models = []any{
	&models.User{},
	&models.Group{},
	&models.GroupMember{},
	&models.Route{},
	&models.Bus{},
	&models.Seat{},
	&models.DailyRequest{},
	&models.Booking{},
	&models.DailyLock{},
	&models.AllocationRun{},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// A seat can hold one confirmed booking and a rider one seat per date.
	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_seat_date_active
		ON bookings (seat_id, date)
		WHERE status = 'CONFIRMED'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_user_date_active
		ON bookings (user_id, date)
		WHERE status = 'CONFIRMED'`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
