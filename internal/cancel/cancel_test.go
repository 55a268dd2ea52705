package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Trawler/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNoneNeverCancelled(t *testing.T) {
	var c None
	if c.IsCancelled(context.Background(), uuid.New()) {
		t.Error("None.IsCancelled должен всегда возвращать false")
	}
}

func TestMemoryCancel(t *testing.T) {
	m := NewMemory()
	runID := uuid.New()
	other := uuid.New()

	if m.IsCancelled(context.Background(), runID) {
		t.Error("до Cancel флаг не должен быть выставлен")
	}

	m.Cancel(runID)
	if !m.IsCancelled(context.Background(), runID) {
		t.Error("после Cancel флаг должен быть выставлен")
	}
	if m.IsCancelled(context.Background(), other) {
		t.Error("отмена одного запуска не должна задевать другие")
	}
}

// stubSource отдаёт фиксированный статус либо ошибку.
type stubSource struct {
	status domain.RunStatus
	err    error
}

func (s *stubSource) GetRunStatus(context.Context, uuid.UUID) (domain.RunStatus, error) {
	return s.status, s.err
}

func TestStoreStatuses(t *testing.T) {
	tests := []struct {
		status domain.RunStatus
		want   bool
	}{
		{domain.RunStatusPending, false},
		{domain.RunStatusRunning, false},
		{domain.RunStatusSucceeded, false},
		{domain.RunStatusFailed, false},
		{domain.RunStatusCancelling, true},
		{domain.RunStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			s := NewStore(&stubSource{status: tt.status}, testLogger())
			if got := s.IsCancelled(context.Background(), uuid.New()); got != tt.want {
				t.Errorf("IsCancelled(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

// TestStoreFailsOpen: ошибка опроса статуса трактуется как "не отменён".
func TestStoreFailsOpen(t *testing.T) {
	s := NewStore(&stubSource{err: errors.New("connection refused")}, testLogger())
	if s.IsCancelled(context.Background(), uuid.New()) {
		t.Error("ошибка источника не должна отменять запуск")
	}
}
