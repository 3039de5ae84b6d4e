package database

import (
	"path/filepath"
	"testing"

	"github.com/memberhub/backend/internal/accounts"
	"github.com/memberhub/backend/internal/profiles"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsBackfillsProfileRank(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&profiles.Profile{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	seeded := []profiles.Profile{
		{UID: "uid-low", Email: "low@example.com", Name: "Low", Points: 50},
		{UID: "uid-mid", Email: "mid@example.com", Name: "Mid", Points: 450},
		{UID: "uid-ranked", Email: "ranked@example.com", Name: "Ranked", Points: 50, Rank: profiles.RankHacker},
	}
	for _, profile := range seeded {
		if err := database.Create(&profile).Error; err != nil {
			testContext.Fatalf("failed to insert profile: %v", err)
		}
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	expected := map[string]string{
		"uid-low":    profiles.RankNewbie,
		"uid-mid":    profiles.RankBuilder,
		"uid-ranked": profiles.RankHacker,
	}
	for uid, rank := range expected {
		var stored profiles.Profile
		if err := database.Where("uid = ?", uid).Take(&stored).Error; err != nil {
			testContext.Fatalf("failed to reload profile %s: %v", uid, err)
		}
		if stored.Rank != rank {
			testContext.Fatalf("expected rank %q for %s, got %q", rank, uid, stored.Rank)
		}
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationBackfillProfileRank).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsRunsOnce(testContext *testing.T) {
	database, err := gorm.Open(sqlite.Open(filepath.Join(testContext.TempDir(), "once.db")), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&profiles.Profile{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("first run failed: %v", err)
	}

	unranked := profiles.Profile{UID: "uid-late", Email: "late@example.com", Name: "Late", Points: 5000}
	if err := database.Create(&unranked).Error; err != nil {
		testContext.Fatalf("failed to insert profile: %v", err)
	}
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("second run failed: %v", err)
	}

	var stored profiles.Profile
	if err := database.Where("uid = ?", unranked.UID).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload profile: %v", err)
	}
	if stored.Rank != "" {
		testContext.Fatalf("expected applied migration to be skipped, got rank %q", stored.Rank)
	}
}

func TestOpenSQLiteCreatesSchema(testContext *testing.T) {
	databasePath := filepath.Join(testContext.TempDir(), "memberhub.db")
	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}
	for _, model := range []interface{}{&accounts.Account{}, &profiles.Profile{}, &migrationRecord{}} {
		if !database.Migrator().HasTable(model) {
			testContext.Fatalf("expected table for %T", model)
		}
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", nil); err == nil {
		testContext.Fatalf("expected missing path error")
	}
}
