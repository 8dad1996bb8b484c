package database

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"embed"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aethra/nexus/internal/logger"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for migrations
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// migrationFiles lists the migration file names for one dialect, sorted.
func migrationFiles(dialect string) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements breaks a migration file into individual statements.
// Both the pgx and mysql drivers reject multi-statement Exec calls.
func splitStatements(content string) []string {
	var statements []string
	for _, chunk := range strings.Split(content, ";") {
		if hasSQL(chunk) {
			statements = append(statements, strings.TrimSpace(chunk))
		}
	}
	return statements
}

// hasSQL reports whether a chunk contains anything besides blank lines
// and line comments.
func hasSQL(chunk string) bool {
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}

// RunMigrations executes all pending SQL migrations for the connected
// dialect in file name order.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dialect := db.Dialector.Name()
	files, err := migrationFiles(dialect)
	if err != nil {
		return err
	}

	for _, file := range files {
		var count int64
		db.Model(&MigrationRecord{}).Where("name = ?", file).Count(&count)
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+dialect+"/"+file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		logger.L().Info("applying migration", zap.String("file", file), zap.String("dialect", dialect))
		for _, stmt := range splitStatements(string(content)) {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", file, err)
			}
		}

		if err := db.Create(&MigrationRecord{Name: file}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}
	}

	return nil
}
