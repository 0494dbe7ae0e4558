package gormpersistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/repository"
)

// mysqlDuplicateEntry 是 MySQL 唯一约束冲突的错误码
const mysqlDuplicateEntry = 1062

// GormJournalRepository 是 JournalRepository 接口的 GORM 实现
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository 创建 GormJournalRepository 实例
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	if db == nil {
		panic("database connection cannot be nil for GormJournalRepository")
	}
	return &GormJournalRepository{db: db}
}

// Save 实现 repository.JournalRepository
func (r *GormJournalRepository) Save(ctx context.Context, entry *domain.JournalEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		if isConnectionError(err) {
			return fmt.Errorf("gorm: save journal entry %s: %v: %w", entry.EntryKey, err, repository.ErrUnavailable)
		}
		return fmt.Errorf("gorm: save journal entry %s: %w", entry.EntryKey, err)
	}
	return nil
}

// ListByRoom 实现 repository.JournalRepository
func (r *GormJournalRepository) ListByRoom(ctx context.Context, roomCode string, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []domain.JournalEntry
	err := r.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("timestamp DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		if isConnectionError(err) {
			return nil, fmt.Errorf("gorm: list journal for room %s: %v: %w", roomCode, err, repository.ErrUnavailable)
		}
		return nil, fmt.Errorf("gorm: list journal for room %s: %w", roomCode, err)
	}
	return entries, nil
}

// isDuplicateEntryError 判断是否为唯一约束冲突
func isDuplicateEntryError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// isConnectionError 判断是否为数据库不可达 (拨号失败、连接被断开)
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
