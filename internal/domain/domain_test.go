package domain

import (
	"encoding/json"
	"testing"
)

// TestStepResultSuccess проверяет вывод успешности из ошибки и статуса.
func TestStepResultSuccess(t *testing.T) {
	tests := []struct {
		name   string
		result StepResult
		want   bool
	}{
		{
			name:   "без ошибки и без статуса",
			result: StepResult{StepName: "list"},
			want:   true,
		},
		{
			name:   "статус 200",
			result: StepResult{StepName: "list", StatusCode: 200},
			want:   true,
		},
		{
			name:   "статус 299 — верхняя граница диапазона",
			result: StepResult{StepName: "list", StatusCode: 299},
			want:   true,
		},
		{
			name:   "статус 300 уже не успех",
			result: StepResult{StepName: "list", StatusCode: 300},
			want:   false,
		},
		{
			name:   "статус 404",
			result: StepResult{StepName: "list", StatusCode: 404},
			want:   false,
		},
		{
			name:   "ошибка перекрывает успешный статус",
			result: StepResult{StepName: "list", StatusCode: 200, Error: "boom"},
			want:   false,
		},
		{
			name:   "ошибка без статуса",
			result: StepResult{StepName: "list", Error: "connection refused"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestStepResultStatus проверяет вывод терминального состояния шага.
func TestStepResultStatus(t *testing.T) {
	tests := []struct {
		name   string
		result *StepResult
		want   StepStatus
	}{
		{
			name:   "пропущенный шаг",
			result: NewSkippedResult("check", "{{check.count}} == 0"),
			want:   StepStatusSkipped,
		},
		{
			name: "таймаут",
			result: &StepResult{
				StepName: "slow",
				Metadata: map[string]any{MetaTimeout: true},
				Error:    "step timeout after 30s",
			},
			want: StepStatusTimedOut,
		},
		{
			name:   "успех",
			result: &StepResult{StepName: "list", StatusCode: 200},
			want:   StepStatusSucceeded,
		},
		{
			name:   "сбой",
			result: NewFailedResult("detail", "no targets"),
			want:   StepStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSkippedResultIsSuccess: пропуск — не ошибка.
func TestSkippedResultIsSuccess(t *testing.T) {
	res := NewSkippedResult("detail", "{{list.count}} == 0")
	if !res.Success() {
		t.Error("пропущенный шаг должен считаться успешным")
	}
	if !res.Skipped() {
		t.Error("Skipped() должен вернуть true")
	}
	if got := res.Metadata[MetaSkipReason]; got != "{{list.count}} == 0" {
		t.Errorf("MetaSkipReason = %v", got)
	}
}

// TestStepResultDuplicate: флаг дубля читается только из bool-значения.
func TestStepResultDuplicate(t *testing.T) {
	res := &StepResult{StepName: "page"}
	if res.Duplicate() {
		t.Error("без метки Duplicate() должен вернуть false")
	}

	res.SetMeta(MetaContentHash, "00000000cafebabe")
	res.SetMeta(MetaDuplicate, true)
	if !res.Duplicate() {
		t.Error("Duplicate() должен вернуть true после установки метки")
	}

	res.Metadata[MetaDuplicate] = "true"
	if res.Duplicate() {
		t.Error("строковое значение метки не считается дублем")
	}
}

// TestFieldSpecShortForm проверяет краткую строковую форму селектора.
func TestFieldSpecShortForm(t *testing.T) {
	raw := []byte(`{
		"title": "h1.title",
		"link": {"selector": "a.more", "attr": "href", "all": true}
	}`)

	var fields map[string]FieldSpec
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if fields["title"].Selector != "h1.title" {
		t.Errorf("title.Selector = %q", fields["title"].Selector)
	}
	if fields["title"].Attr != "" {
		t.Errorf("краткая форма не должна заполнять Attr: %q", fields["title"].Attr)
	}
	if fields["link"].Selector != "a.more" || fields["link"].Attr != "href" || !fields["link"].All {
		t.Errorf("полная форма разобрана неверно: %+v", fields["link"])
	}
}

// TestStepDefFields: Selectors приоритетнее устаревшего FieldSpecs.
func TestStepDefFields(t *testing.T) {
	step := StepDef{
		Name:       "list",
		Selectors:  map[string]FieldSpec{"new": {Selector: ".new"}},
		FieldSpecs: map[string]FieldSpec{"old": {Selector: ".old"}},
	}
	if _, ok := step.Fields()["new"]; !ok {
		t.Error("Fields() должен вернуть Selectors")
	}

	legacy := StepDef{
		Name:       "list",
		FieldSpecs: map[string]FieldSpec{"old": {Selector: ".old"}},
	}
	if _, ok := legacy.Fields()["old"]; !ok {
		t.Error("Fields() должен вернуть FieldSpecs при пустом Selectors")
	}
}

// TestRunCancelTransitions проверяет переходы статуса при отмене.
func TestRunCancelTransitions(t *testing.T) {
	r := &Run{Status: RunStatusRunning}
	if !r.RequestCancel() {
		t.Fatal("отмена из RUNNING должна быть разрешена")
	}
	if r.Status != RunStatusCancelling {
		t.Errorf("Status = %v, want CANCELLING", r.Status)
	}
	if r.Status.IsTerminal() {
		t.Error("CANCELLING не терминальный статус")
	}
	if !r.Status.CancelRequested() {
		t.Error("CancelRequested() для CANCELLING должен вернуть true")
	}

	r.MarkCancelled()
	if !r.Status.IsTerminal() {
		t.Error("CANCELLED терминальный статус")
	}
	if r.RequestCancel() {
		t.Error("отмена завершённого run должна быть запрещена")
	}
}
