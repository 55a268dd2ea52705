package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Trawler/internal/domain"
)

// StepResultRepo — репозиторий для работы с step_results.
type StepResultRepo struct {
	pool *pgxpool.Pool
}

// NewStepResultRepo создаёт новый StepResultRepo.
func NewStepResultRepo(pool *pgxpool.Pool) *StepResultRepo {
	return &StepResultRepo{pool: pool}
}

// Save сохраняет результат одного шага.
// Повторное сохранение той же пары (run_id, step_name) перезаписывает
// запись: доставка события о завершении может повториться.
func (r *StepResultRepo) Save(ctx context.Context, runID uuid.UUID, res *domain.StepResult) error {
	extractedJSON, err := json.Marshal(res.ExtractedData)
	if err != nil {
		return fmt.Errorf("marshal extracted_data: %w", err)
	}
	metadataJSON, err := json.Marshal(res.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	// Тело дубля не храним: идентичное содержимое уже записано под шагом,
	// который первым встретил этот отпечаток. Сам факт и отпечаток остаются
	// в metadata (duplicate, content_hash).
	content := res.Content
	if res.Duplicate() {
		content = ""
	}

	query := `
		INSERT INTO step_results (run_id, step_name, status, status_code,
		                          content, extracted_data, metadata, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (run_id, step_name) DO UPDATE
		SET status = EXCLUDED.status,
		    status_code = EXCLUDED.status_code,
		    content = EXCLUDED.content,
		    extracted_data = EXCLUDED.extracted_data,
		    metadata = EXCLUDED.metadata,
		    error = EXCLUDED.error
	`
	_, err = r.pool.Exec(ctx, query,
		runID,
		res.StepName,
		res.Status(),
		res.StatusCode,
		content,
		extractedJSON,
		metadataJSON,
		nullString(res.Error),
	)
	if err != nil {
		return fmt.Errorf("insert step result: %w", err)
	}
	return nil
}

// SaveAll сохраняет результаты всех шагов запуска в порядке выполнения.
func (r *StepResultRepo) SaveAll(ctx context.Context, runID uuid.UUID, results []*domain.StepResult) error {
	for _, res := range results {
		if err := r.Save(ctx, runID, res); err != nil {
			return fmt.Errorf("step %s: %w", res.StepName, err)
		}
	}
	return nil
}

// Get возвращает результат шага по run_id и имени шага.
func (r *StepResultRepo) Get(ctx context.Context, runID uuid.UUID, stepName string) (*domain.StepResult, error) {
	query := `
		SELECT step_name, status_code, content, extracted_data, metadata, error
		FROM step_results
		WHERE run_id = $1 AND step_name = $2
	`
	return r.scanResult(r.pool.QueryRow(ctx, query, runID, stepName))
}

// ListByRunID возвращает результаты всех шагов запуска в порядке записи.
func (r *StepResultRepo) ListByRunID(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	query := `
		SELECT step_name, status_code, content, extracted_data, metadata, error
		FROM step_results
		WHERE run_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list step results: %w", err)
	}
	defer rows.Close()

	var results []domain.StepResult
	for rows.Next() {
		res, err := r.scanResultFromRows(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// --- Helpers ---

func (r *StepResultRepo) scanResult(row pgx.Row) (*domain.StepResult, error) {
	var res domain.StepResult
	var extractedJSON, metadataJSON []byte
	var resError *string

	err := row.Scan(
		&res.StepName,
		&res.StatusCode,
		&res.Content,
		&extractedJSON,
		&metadataJSON,
		&resError,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan step result: %w", err)
	}

	if extractedJSON != nil {
		if err := json.Unmarshal(extractedJSON, &res.ExtractedData); err != nil {
			return nil, fmt.Errorf("unmarshal extracted_data: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &res.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if resError != nil {
		res.Error = *resError
	}

	return &res, nil
}

func (r *StepResultRepo) scanResultFromRows(rows pgx.Rows) (*domain.StepResult, error) {
	var res domain.StepResult
	var extractedJSON, metadataJSON []byte
	var resError *string

	err := rows.Scan(
		&res.StepName,
		&res.StatusCode,
		&res.Content,
		&extractedJSON,
		&metadataJSON,
		&resError,
	)
	if err != nil {
		return nil, fmt.Errorf("scan step result: %w", err)
	}

	if extractedJSON != nil {
		if err := json.Unmarshal(extractedJSON, &res.ExtractedData); err != nil {
			return nil, fmt.Errorf("unmarshal extracted_data: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &res.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if resError != nil {
		res.Error = *resError
	}

	return &res, nil
}
