package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/justsurfingit/job-ledger-sync/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LedgerRow is the relational form of a ledger record. Position keeps the
// ledger order stable across load and persist.
type LedgerRow struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Position    int    `gorm:"index;not null"`
	Company     string `gorm:"type:text;not null;default:''"`
	RoleTitle   string `gorm:"type:text;not null;default:''"`
	JobLink     string `gorm:"type:text;not null;default:''"`
	AppliedDate string `gorm:"not null;default:''"`
	Status      string `gorm:"not null;default:''"`
	JobText     string `gorm:"type:text;not null;default:''"`
	Summary     string `gorm:"type:text;not null;default:''"`
	Skills      string `gorm:"type:text;not null;default:''"`
	Salary      string `gorm:"not null;default:''"`
}

func (LedgerRow) TableName() string {
	return "job_applications"
}

// GormStore keeps the ledger in PostgreSQL.
type GormStore struct {
	DB *gorm.DB
}

// Connect opens PostgreSQL and migrates the ledger table.
func Connect(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Println("[db] Database connection established")
	return NewGormStore(db)
}

// NewGormStore wraps an open connection. AutoMigrate adds any schema column
// the table is missing, so older tables are completed in place.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	log.Println("[db] Running Migrations...")
	if err := db.AutoMigrate(&LedgerRow{}); err != nil {
		return nil, fmt.Errorf("migrate ledger table: %w", err)
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Load(ctx context.Context) ([]models.JobApplication, error) {
	var rows []LedgerRow
	if err := s.DB.WithContext(ctx).Order("position asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ledger rows: %w", err)
	}
	ledger := make([]models.JobApplication, len(rows))
	for i, row := range rows {
		ledger[i] = row.toRecord()
	}
	return ledger, nil
}

// Persist replaces every row in a single transaction.
func (s *GormStore) Persist(ctx context.Context, ledger []models.JobApplication) error {
	rows := rowsFromLedger(ledger)
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&LedgerRow{}).Error; err != nil {
			return fmt.Errorf("clear ledger rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert ledger rows: %w", err)
		}
		return nil
	})
}

func rowsFromLedger(ledger []models.JobApplication) []LedgerRow {
	rows := make([]LedgerRow, len(ledger))
	for i, rec := range ledger {
		rows[i] = LedgerRow{
			Position:    i,
			Company:     rec.Company,
			RoleTitle:   rec.RoleTitle,
			JobLink:     rec.JobLink,
			AppliedDate: rec.AppliedDate,
			Status:      string(rec.Status),
			JobText:     rec.JobText,
			Summary:     rec.Summary,
			Skills:      rec.Skills,
			Salary:      rec.Salary,
		}
	}
	return rows
}

func (r LedgerRow) toRecord() models.JobApplication {
	return models.JobApplication{
		Company:     r.Company,
		RoleTitle:   r.RoleTitle,
		JobLink:     r.JobLink,
		AppliedDate: r.AppliedDate,
		Status:      models.Status(r.Status),
		JobText:     r.JobText,
		Summary:     r.Summary,
		Skills:      r.Skills,
		Salary:      r.Salary,
	}
}
