package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/getkayan/medgas/domain"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultProfile names the session record when none is configured.
const DefaultProfile = "default"

// Repository stores the session record in a SQL table through GORM.
type Repository struct {
	db      *gorm.DB
	profile string
}

func NewRepository(db *gorm.DB, profile string) *Repository {
	return &Repository{db: db, profile: profile}
}

func init() {
	RegisterDialect("sqlite", sqlite.Open)
	RegisterDialect("postgres", postgres.Open)
	RegisterDialect("mysql", mysql.Open)
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.SessionRecord{})
}

func (r *Repository) Load(ctx context.Context) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	err := r.db.WithContext(ctx).First(&rec, "profile = ?", r.profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save upserts the whole row in one statement.
func (r *Repository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	row := *rec
	row.Profile = r.profile
	row.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "user_profile", "updated_at"}),
	}).Create(&row).Error
}

func (r *Repository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).Delete(&domain.SessionRecord{}, "profile = ?", r.profile).Error
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
