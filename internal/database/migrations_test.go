package database

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/petaldocs/docsign/internal/ledger"
)

func TestApplyMigrationsNormalizesSignerStatusValues(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&ledger.DocumentSigner{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	signer := ledger.DocumentSigner{
		TokenID: 1,
		Signer:  "signer-1",
		Status:  "waiting",
	}
	if err := database.Create(&signer).Error; err != nil {
		testContext.Fatalf("failed to insert signer row: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored ledger.DocumentSigner
	if err := database.Where("token_id = ? AND signer = ?", signer.TokenID, signer.Signer).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload signer row: %v", err)
	}
	if stored.Status != "Waiting" {
		testContext.Fatalf("expected normalized status, got %q", stored.Status)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationNormalizeSignerStatus).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsRunsOnce(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "repeat.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&ledger.DocumentSigner{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("first run failed: %v", err)
	}
	var first migrationRecord
	if err := database.Where("name = ?", migrationNormalizeSignerStatus).Take(&first).Error; err != nil {
		testContext.Fatalf("expected migration record: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("second run failed: %v", err)
	}
	var count int64
	if err := database.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count records: %v", err)
	}
	if count != 1 {
		testContext.Fatalf("expected a single migration record, got %d", count)
	}
}

func TestOpenSQLiteInitializesSchema(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "ledger.db")

	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open database: %v", err)
	}

	for _, table := range []string{
		"token_owners", "token_uris", "document_hashes", "document_deadlines",
		"document_signers", "signer_nonces", "admin_records", "debug_counters",
		"signature_events", "accounts", "db_migrations",
	} {
		if !database.Migrator().HasTable(table) {
			testContext.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected error for missing database path")
	}
}
