package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Trawler/internal/domain"
)

func TestResolveParams(t *testing.T) {
	spec := &domain.JobSpec{
		Params: map[string]domain.ParamDef{
			"category":  {Type: "string", Required: true},
			"max_pages": {Type: "number", Default: 10},
			"deep":      {Type: "boolean"},
			"filters":   {Type: "object"},
		},
	}

	tests := []struct {
		name    string
		given   map[string]any
		wantErr error
		check   func(t *testing.T, got map[string]any)
	}{
		{
			name:  "required передан, default подставлен",
			given: map[string]any{"category": "books"},
			check: func(t *testing.T, got map[string]any) {
				if got["category"] != "books" {
					t.Errorf("category = %v", got["category"])
				}
				if got["max_pages"] != 10 {
					t.Errorf("max_pages default = %v, want 10", got["max_pages"])
				}
			},
		},
		{
			name:    "required отсутствует",
			given:   map[string]any{},
			wantErr: ErrMissingParam,
		},
		{
			name:    "неверный тип строки",
			given:   map[string]any{"category": 42},
			wantErr: ErrBadParamType,
		},
		{
			name:    "неверный тип boolean",
			given:   map[string]any{"category": "books", "deep": "yes"},
			wantErr: ErrBadParamType,
		},
		{
			name:  "number принимает float64 из JSON",
			given: map[string]any{"category": "books", "max_pages": 3.0},
			check: func(t *testing.T, got map[string]any) {
				if got["max_pages"] != 3.0 {
					t.Errorf("max_pages = %v", got["max_pages"])
				}
			},
		},
		{
			name:  "object проходит проверку",
			given: map[string]any{"category": "books", "filters": map[string]any{"in_stock": true}},
		},
		{
			name:  "необъявленные параметры проходят как есть",
			given: map[string]any{"category": "books", "token": "abc"},
			check: func(t *testing.T, got map[string]any) {
				if got["token"] != "abc" {
					t.Errorf("token = %v", got["token"])
				}
			},
		},
		{
			name:  "nil значение не проверяется по типу",
			given: map[string]any{"category": "books", "deep": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveParams(spec, tt.given)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestResolveParamsNoDeclarations(t *testing.T) {
	got, err := ResolveParams(&domain.JobSpec{}, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a"] != 1 {
		t.Errorf("a = %v", got["a"])
	}
}

func TestResolveParamsDoesNotMutateInput(t *testing.T) {
	spec := &domain.JobSpec{
		Params: map[string]domain.ParamDef{
			"limit": {Type: "number", Default: 5},
		},
	}
	given := map[string]any{}

	got, err := ResolveParams(spec, given)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["limit"] != 5 {
		t.Errorf("limit = %v, want 5", got["limit"])
	}
	if len(given) != 0 {
		t.Errorf("input map mutated: %v", given)
	}
}
