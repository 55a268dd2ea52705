package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Trawler/internal/domain"
)

// Job DTOs

// CreateJobRequest — запрос на создание job.
type CreateJobRequest struct {
	Name string         `json:"name"`
	Spec domain.JobSpec `json:"spec"`
}

// UpdateJobRequest — запрос на обновление job.
type UpdateJobRequest struct {
	Name     *string         `json:"name,omitempty"`
	Spec     *domain.JobSpec `json:"spec,omitempty"`
	IsActive *bool           `json:"is_active,omitempty"`
}

// SetActiveRequest — запрос на включение/выключение job.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// ValidateSpecResponse — результат проверки спецификации.
type ValidateSpecResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// JobResponse — ответ с job.
type JobResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Spec      domain.JobSpec `json:"spec"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Name:      j.Name,
		Spec:      j.Spec,
		IsActive:  j.IsActive,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// Run DTOs

// CreateRunRequest — запрос на создание run.
type CreateRunRequest struct {
	Params         map[string]any `json:"params,omitempty"`
	Priority       int            `json:"priority,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID             uuid.UUID      `json:"id"`
	JobID          uuid.UUID      `json:"job_id"`
	Status         string         `json:"status"`
	Params         map[string]any `json:"params,omitempty"`
	Priority       int            `json:"priority"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
	Error          string         `json:"error,omitempty"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:             r.ID,
		JobID:          r.JobID,
		Status:         string(r.Status),
		Params:         r.Params,
		Priority:       r.Priority,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Error:          r.Error,
		IdempotencyKey: r.IdempotencyKey,
		CreatedAt:      r.CreatedAt,
	}
}

// StepResult DTOs

// StepResultResponse — ответ с результатом шага.
//
// В списке результатов content не отдаётся (страницы бывают большими),
// только его размер; полный content доступен по отдельному запросу шага.
type StepResultResponse struct {
	StepName      string         `json:"step_name"`
	Status        string         `json:"status"`
	StatusCode    int            `json:"status_code,omitempty"`
	Content       string         `json:"content,omitempty"`
	ContentSize   int            `json:"content_size"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// StepResultFromDomain конвертирует domain.StepResult в StepResultResponse.
func StepResultFromDomain(res *domain.StepResult, includeContent bool) StepResultResponse {
	r := StepResultResponse{
		StepName:      res.StepName,
		Status:        string(res.Status()),
		StatusCode:    res.StatusCode,
		ContentSize:   len(res.Content),
		ExtractedData: res.ExtractedData,
		Metadata:      res.Metadata,
		Error:         res.Error,
	}
	if includeContent {
		r.Content = res.Content
	}
	return r
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	Name        string         `json:"name"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone,omitempty"`
	Enabled     bool           `json:"enabled"`
	Priority    int            `json:"priority,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string         `json:"name,omitempty"`
	CronExpr    *string         `json:"cron_expr,omitempty"`
	IntervalSec *int            `json:"interval_sec,omitempty"`
	Timezone    *string         `json:"timezone,omitempty"`
	Priority    *int            `json:"priority,omitempty"`
	Params      *map[string]any `json:"params,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ со schedule.
type ScheduleResponse struct {
	ID          uuid.UUID      `json:"id"`
	JobID       uuid.UUID      `json:"job_id"`
	Name        string         `json:"name"`
	CronExpr    string         `json:"cron_expr,omitempty"`
	IntervalSec int            `json:"interval_sec,omitempty"`
	Timezone    string         `json:"timezone"`
	Enabled     bool           `json:"enabled"`
	Priority    int            `json:"priority"`
	NextDueAt   *time.Time     `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time     `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID     `json:"last_run_id,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:          s.ID,
		JobID:       s.JobID,
		Name:        s.Name,
		CronExpr:    s.CronExpr,
		IntervalSec: s.IntervalSec,
		Timezone:    s.Timezone,
		Enabled:     s.Enabled,
		Priority:    s.Priority,
		NextDueAt:   s.NextDueAt,
		LastRunAt:   s.LastRunAt,
		LastRunID:   s.LastRunID,
		Params:      s.Params,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
