package database

import (
	"errors"
	"time"

	"github.com/memberhub/backend/internal/profiles"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillProfileRank = "2026-10-01_backfill_profile_rank"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillProfileRank, apply: backfillProfileRank},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillProfileRank derives the rank of profiles imported without one.
func backfillProfileRank(db *gorm.DB) error {
	var pending []profiles.Profile
	if err := db.Where("rank = ? OR rank IS NULL", "").Find(&pending).Error; err != nil {
		return err
	}
	for _, profile := range pending {
		rank := profiles.RankForPoints(profile.Points)
		if err := db.Model(&profiles.Profile{}).
			Where("uid = ?", profile.UID).
			Update("rank", rank).Error; err != nil {
			return err
		}
	}
	return nil
}
