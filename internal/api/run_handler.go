package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Trawler/internal/domain"
	"github.com/shaiso/Trawler/internal/engine"
	"github.com/shaiso/Trawler/internal/mq"
	"github.com/shaiso/Trawler/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?job_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{}

	// Парсим query параметры
	if jobIDStr := r.URL.Query().Get("job_id"); jobIDStr != "" {
		jobID, err := uuid.Parse(jobIDStr)
		if err != nil {
			BadRequest(w, "invalid job_id")
			return
		}
		filter.JobID = &jobID
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.RunStatus(status)
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		filter.Limit = parseIntDefault(limitStr, 50)
	} else {
		filter.Limit = 50
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		filter.Offset = parseIntDefault(offsetStr, 0)
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// CreateRun создаёт новый run для job и ставит его в очередь.
// POST /api/v1/jobs/{id}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// Проверяем, что job существует
	job, err := h.jobRepo.GetByID(r.Context(), jobID)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	// Сверяем параметры с объявлениями спецификации
	params, err := engine.ResolveParams(&job.Spec, req.Params)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	priority := req.Priority
	if priority < 0 {
		priority = 0
	}
	if priority > mq.MaxPriority {
		priority = mq.MaxPriority
	}

	// Проверяем idempotency key
	if req.IdempotencyKey != "" {
		existing, err := h.runRepo.GetByIdempotencyKey(r.Context(), job.ID, req.IdempotencyKey)
		if err == nil && existing != nil {
			// Возвращаем существующий run
			Success(w, RunFromDomain(*existing))
			return
		}
	}

	run := &domain.Run{
		ID:             uuid.New(),
		JobID:          job.ID,
		Status:         domain.RunStatusPending,
		Params:         params,
		Priority:       priority,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		// Гонка по idempotency key: параллельный запрос успел первым
		if errors.Is(err, repo.ErrAlreadyExists) && req.IdempotencyKey != "" {
			existing, gerr := h.runRepo.GetByIdempotencyKey(r.Context(), job.ID, req.IdempotencyKey)
			if gerr == nil && existing != nil {
				Success(w, RunFromDomain(*existing))
				return
			}
		}
		InternalError(w, h.logger, err)
		return
	}

	// Публикуем событие в очередь
	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(r.Context(), run.ID, run.Priority); err != nil {
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	Created(w, RunFromDomain(*run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// CancelRun запрашивает отмену run.
//
// Отмена кооперативная: run переводится в CANCELLING, runner замечает
// флаг перед следующим шагом и завершает запуск со статусом CANCELLED.
// Уже начатый шаг не обрывается.
//
// POST /api/v1/runs/{id}/cancel
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	if !run.RequestCancel() {
		InvalidState(w, "run cannot be cancelled in status "+string(run.Status))
		return
	}

	if err := h.runRepo.Update(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, RunFromDomain(*run))
}

// ListRunResults возвращает результаты шагов run (без content).
// GET /api/v1/runs/{id}/results
func (h *Handler) ListRunResults(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	// Проверяем, что run существует
	_, err = h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	results, err := h.resultRepo.ListByRunID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]StepResultResponse, len(results))
	for i := range results {
		result[i] = StepResultFromDomain(&results[i], false)
	}

	List(w, result, len(result))
}

// GetRunResult возвращает результат одного шага, включая content.
// GET /api/v1/runs/{id}/results/{step}
func (h *Handler) GetRunResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	step := r.PathValue("step")
	if step == "" {
		BadRequest(w, "step name is required")
		return
	}

	res, err := h.resultRepo.Get(r.Context(), id, step)
	if HandleRepoError(w, h.logger, err, "step result not found") {
		return
	}

	Success(w, StepResultFromDomain(res, true))
}

// parseIntDefault парсит строку в int с дефолтным значением.
func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
