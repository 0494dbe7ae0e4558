package setup

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"geek-ludo/internal/domain"
)

// MigrateDB 建立对局日志表。只有日志功能开启时才会连数据库。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return errors.New("migrate journal schema: nil DB connection")
	}
	if err := db.AutoMigrate(&domain.JournalEntry{}); err != nil {
		return fmt.Errorf("migrate journal schema: %w", err)
	}
	return nil
}
