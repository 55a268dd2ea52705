package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Trawler/internal/domain"
	"github.com/shaiso/Trawler/internal/engine"
)

// ListJobs возвращает список всех jobs.
// GET /api/v1/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		result[i] = JobFromDomain(j)
	}

	List(w, result, len(result))
}

// CreateJob создаёт новый job.
// POST /api/v1/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	// Невыполнимая спецификация не должна попасть в БД
	if err := engine.ValidateSpec(&req.Spec); err != nil {
		BadRequest(w, "invalid spec: "+err.Error())
		return
	}

	now := time.Now()
	job := &domain.Job{
		ID:        uuid.New(),
		Name:      req.Name,
		Spec:      req.Spec,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		if HandleRepoError(w, h.logger, err, "") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Created(w, JobFromDomain(*job))
}

// ValidateJobSpec проверяет спецификацию без сохранения.
// POST /api/v1/jobs/validate
func (h *Handler) ValidateJobSpec(w http.ResponseWriter, r *http.Request) {
	var spec domain.JobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := engine.ValidateSpec(&spec); err != nil {
		Success(w, ValidateSpecResponse{Valid: false, Error: err.Error()})
		return
	}

	Success(w, ValidateSpecResponse{Valid: true})
}

// GetJob возвращает job по ID.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(*job))
}

// UpdateJob обновляет job.
// PUT /api/v1/jobs/{id}
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	var req UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	if req.Name != nil {
		job.Name = *req.Name
	}
	if req.Spec != nil {
		if err := engine.ValidateSpec(req.Spec); err != nil {
			BadRequest(w, "invalid spec: "+err.Error())
			return
		}
		job.Spec = *req.Spec
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}
	job.UpdatedAt = time.Now()

	if err := h.jobRepo.Update(r.Context(), job); err != nil {
		if HandleRepoError(w, h.logger, err, "job not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, JobFromDomain(*job))
}

// DeleteJob удаляет job вместе с его runs и результатами.
// DELETE /api/v1/jobs/{id}
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	if err := h.jobRepo.Delete(r.Context(), id); err != nil {
		if HandleRepoError(w, h.logger, err, "job not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// SetJobActive включает или выключает job.
// PUT /api/v1/jobs/{id}/active
func (h *Handler) SetJobActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := h.jobRepo.SetActive(r.Context(), id, req.Active); err != nil {
		if HandleRepoError(w, h.logger, err, "job not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(*job))
}
