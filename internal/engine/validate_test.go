package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Trawler/internal/domain"
)

func TestValidateSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    *domain.JobSpec
		wantErr error
	}{
		{
			name: "валидная спецификация",
			spec: &domain.JobSpec{
				BaseURL: "https://shop.example",
				Steps: []domain.StepDef{
					{Name: "list", Type: "crawl"},
					{Name: "detail", Type: "scrape", InputFrom: "list.urls"},
				},
			},
		},
		{
			name:    "nil спецификация",
			spec:    nil,
			wantErr: ErrEmptySteps,
		},
		{
			name:    "без шагов",
			spec:    &domain.JobSpec{},
			wantErr: ErrEmptySteps,
		},
		{
			name: "пустое имя шага",
			spec: &domain.JobSpec{
				Steps: []domain.StepDef{{Name: ""}},
			},
			wantErr: ErrEmptyStepName,
		},
		{
			name: "дубликат имени",
			spec: &domain.JobSpec{
				Steps: []domain.StepDef{{Name: "list"}, {Name: "list"}},
			},
			wantErr: ErrDuplicateStepName,
		},
		{
			name: "битый input_from",
			spec: &domain.JobSpec{
				Steps: []domain.StepDef{{Name: "detail", InputFrom: "ghost.urls"}},
			},
			wantErr: ErrMissingDependency,
		},
		{
			name: "цикл",
			spec: &domain.JobSpec{
				Steps: []domain.StepDef{
					{Name: "a", InputFrom: "b.x"},
					{Name: "b", InputFrom: "a.x"},
				},
			},
			wantErr: ErrCyclicDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpec(tt.spec)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpec_UnknownMethod(t *testing.T) {
	spec := &domain.JobSpec{
		Steps: []domain.StepDef{{Name: "list", Type: "teleport"}},
	}

	err := ValidateSpec(spec)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.StepName != "list" {
		t.Errorf("StepName = %q", verr.StepName)
	}
}

func TestValidateSpec_BadRetry(t *testing.T) {
	tests := []struct {
		name  string
		retry domain.RetryPolicy
	}{
		{"отрицательные попытки", domain.RetryPolicy{MaxAttempts: -1}},
		{"неизвестная стратегия", domain.RetryPolicy{Backoff: "random"}},
		{"отрицательная задержка", domain.RetryPolicy{InitialDelayMs: -5}},
		{"jitter вне диапазона", domain.RetryPolicy{Jitter: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &domain.JobSpec{
				Steps: []domain.StepDef{
					{Name: "list", Retry: &tt.retry},
				},
			}
			if err := ValidateSpec(spec); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
