package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"geek-ludo/internal/domain"
	"geek-ludo/internal/repository"
	"geek-ludo/internal/repository/mocks"
	"geek-ludo/internal/tasks"
	"geek-ludo/internal/worker"
)

func journalTask(t *testing.T, entry domain.JournalEntry) *asynq.Task {
	t.Helper()
	payload, err := tasks.NewJournalPersistTask(entry)
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeJournalPersist, payload)
}

func TestJournalPersistenceHandler_Saves(t *testing.T) {
	// Arrange
	repo := mocks.NewJournalRepository(t)
	entry := domain.JournalEntry{EntryKey: "k-1", RoomCode: "ABC", Action: "win", EventType: domain.JournalGameplay}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(e *domain.JournalEntry) bool {
		return e.EntryKey == "k-1" && e.Action == "win"
	})).Return(nil).Once()
	h := worker.NewJournalPersistenceHandler(repo)

	// Act
	err := h.ProcessTask(context.Background(), journalTask(t, entry))

	// Assert
	assert.NoError(t, err)
}

func TestJournalPersistenceHandler_BadPayloadSkipsRetry(t *testing.T) {
	repo := mocks.NewJournalRepository(t)
	h := worker.NewJournalPersistenceHandler(repo)

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeJournalPersist, []byte("{broken")))

	assert.ErrorIs(t, err, asynq.SkipRetry, "无法解析的任务不应重试")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestJournalPersistenceHandler_MissingKeySkipsRetry(t *testing.T) {
	repo := mocks.NewJournalRepository(t)
	h := worker.NewJournalPersistenceHandler(repo)
	raw, err := json.Marshal(tasks.JournalPersistPayload{Entry: domain.JournalEntry{RoomCode: "ABC"}})
	require.NoError(t, err)

	err = h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeJournalPersist, raw))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestJournalPersistenceHandler_DuplicateIsDone(t *testing.T) {
	repo := mocks.NewJournalRepository(t)
	repo.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", repository.ErrDuplicateEntry)).Once()
	h := worker.NewJournalPersistenceHandler(repo)

	err := h.ProcessTask(context.Background(), journalTask(t, domain.JournalEntry{EntryKey: "k-1", RoomCode: "ABC"}))

	assert.NoError(t, err, "重复写入视为已完成")
}

func TestJournalPersistenceHandler_SaveErrorRetries(t *testing.T) {
	repo := mocks.NewJournalRepository(t)
	dbErr := errors.New("connection reset")
	repo.On("Save", mock.Anything, mock.Anything).Return(dbErr).Once()
	h := worker.NewJournalPersistenceHandler(repo)

	err := h.ProcessTask(context.Background(), journalTask(t, domain.JournalEntry{EntryKey: "k-1", RoomCode: "ABC"}))

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "数据库错误应交给 asynq 重试")
}
