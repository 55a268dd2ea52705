package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Trawler/internal/dedup"
	"github.com/shaiso/Trawler/internal/domain"
	"github.com/shaiso/Trawler/internal/engine"
	"github.com/shaiso/Trawler/internal/fetch"
	"github.com/shaiso/Trawler/internal/retry"
	"github.com/shaiso/Trawler/internal/telemetry"
)

// executeStep выполняет один шаг и всегда возвращает результат:
// любой сбой превращается в failed StepResult, а не в ошибку наружу.
//
// Порядок стадий: условия запуска → выбор стратегии → конфигурация →
// цели → вызов стратегии под таймаутом → свёртка. Конфигурация
// резолвится до целей, потому что цель может прийти из config.url.
func (r *Runner) executeStep(ctx context.Context, log *slog.Logger, reg *fetch.Registry,
	resolver *engine.Resolver, evaluator *engine.Evaluator,
	job *domain.Job, step *domain.StepDef, seen *dedup.Tracker) (result *domain.StepResult) {

	log = telemetry.WithStep(log, step.Name)
	started := time.Now()

	// Паника стратегии или резолвера не валит запуск целиком.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("step panicked", "panic", rec)
			result = domain.NewFailedResult(step.Name, fmt.Sprintf("internal error: %v", rec))
		}
		if result != nil {
			result.SetMeta(domain.MetaDurationMs, time.Since(started).Milliseconds())
		}
	}()

	// Условия запуска: истинный skip_if или ложный run_only_if
	// помечают шаг пропущенным, до стратегии он не доходит.
	if step.SkipIf != "" && evaluator.Evaluate(step.SkipIf) {
		log.Info("step skipped", "condition", "skip_if", "expr", step.SkipIf)
		return domain.NewSkippedResult(step.Name, step.SkipIf)
	}
	if step.RunOnlyIf != "" && !evaluator.Evaluate(step.RunOnlyIf) {
		log.Info("step skipped", "condition", "run_only_if", "expr", step.RunOnlyIf)
		return domain.NewSkippedResult(step.Name, step.RunOnlyIf)
	}

	method, err := domain.ResolveMethod(step.Type, step.Method)
	if err != nil {
		return domain.NewFailedResult(step.Name, err.Error())
	}
	strat, err := reg.Get(method)
	if err != nil {
		return domain.NewFailedResult(step.Name, err.Error())
	}

	cfg, err := stepConfig(resolver, job, step)
	if err != nil {
		return domain.NewFailedResult(step.Name, fmt.Sprintf("resolve config: %v", err))
	}

	targets, err := resolveTargets(resolver, job, step, cfg)
	if err != nil {
		return domain.NewFailedResult(step.Name, err.Error())
	}

	timeout := stepTimeout(job, step, r.stepTimeout)
	policy := stepRetry(job, step)

	folded, attempts, timedOut, execErr := r.runStrategy(ctx, log, strat, step, cfg, targets, timeout, policy, job)

	var res *domain.StepResult
	switch {
	case timedOut:
		res = domain.NewFailedResult(step.Name, fmt.Sprintf("timeout after %s", timeout))
		res.SetMeta(domain.MetaTimeout, true)
	case execErr != nil:
		res = domain.NewFailedResult(step.Name, execErr.Error())
	default:
		res = &domain.StepResult{
			StepName:      step.Name,
			StatusCode:    folded.StatusCode,
			Content:       folded.Content,
			ExtractedData: folded.ExtractedData,
			Metadata:      folded.Metadata,
			Error:         folded.Error,
		}
	}

	res.SetMeta(domain.MetaTimeoutSec, timeout.Seconds())
	if _, ok := res.Metadata[domain.MetaTargets]; !ok {
		res.SetMeta(domain.MetaTargets, len(targets))
	}
	if attempts > 1 {
		res.SetMeta(domain.MetaAttempts, attempts)
	}

	// Повторное содержимое помечается, но не выбрасывается:
	// что делать с дублем, решает потребитель результата.
	if hash, ok := res.Metadata[domain.MetaContentHash].(string); ok && seen.Seen(hash) {
		res.SetMeta(domain.MetaDuplicate, true)
	}

	applyMinSuccessRatio(res, cfg)

	r.sink.TargetsFetched(job.Name, len(targets))
	return res
}

// runStrategy вызывает стратегию под таймаутом шага.
//
// Пакетные стратегии получают весь список целей одним вызовом; для
// остальных устраивается обход: по вызову на цель, пачками, с
// повторами для каждой цели отдельно и свёрткой результатов в один.
// timedOut=true только когда истёк именно таймаут шага, а не
// родительский контекст запуска.
func (r *Runner) runStrategy(ctx context.Context, log *slog.Logger, strat fetch.Strategy,
	step *domain.StepDef, cfg map[string]any, targets []string,
	timeout time.Duration, policy *domain.RetryPolicy, job *domain.Job) (*fetch.Result, int, bool, error) {

	tctx, cancelStep := context.WithTimeout(ctx, timeout)
	defer cancelStep()

	fields := step.Fields()

	var folded *fetch.Result
	var attempts int
	var execErr error

	if strat.SupportsBatch() || len(targets) == 1 {
		var res *fetch.Result
		attempts, execErr = retry.Do(tctx, policy, log, func(ctx context.Context) (int, error) {
			var err error
			res, err = strat.Execute(ctx, targets, cfg, fields)
			if err != nil {
				return 0, err
			}
			return res.StatusCode, nil
		})
		folded = res
	} else {
		results := make([]*fetch.Result, len(targets))
		attemptsPer := make([]int, len(targets))

		execErr = fetch.ForEachBatch(tctx, targets, stepBatchSize(job, cfg), func(ctx context.Context, i int, target string) error {
			var res *fetch.Result
			n, lastErr := retry.Do(ctx, policy, log, func(ctx context.Context) (int, error) {
				var err error
				res, err = strat.Execute(ctx, []string{target}, cfg, fields)
				if err != nil {
					return 0, err
				}
				return res.StatusCode, nil
			})
			attemptsPer[i] = n

			switch {
			case lastErr != nil && ctx.Err() != nil:
				// Контекст истёк — дальше обходить нечего.
				return ctx.Err()
			case lastErr != nil:
				results[i] = &fetch.Result{Error: lastErr.Error()}
			case res == nil:
				results[i] = &fetch.Result{Error: "strategy returned no result"}
			default:
				results[i] = res
			}
			return nil
		})

		for _, n := range attemptsPer {
			if n > attempts {
				attempts = n
			}
		}
		if execErr == nil {
			folded = fetch.Aggregate(results)
		}
	}

	if execErr != nil {
		timedOut := errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		return nil, attempts, timedOut, execErr
	}
	if folded == nil {
		return nil, attempts, false, errors.New("strategy returned no result")
	}
	return folded, attempts, false, nil
}

// stepConfig собирает конфигурацию шага: глобальная конфигурация job,
// поверх неё шаговая, затем подстановка шаблонов во всех значениях.
func stepConfig(resolver *engine.Resolver, job *domain.Job, step *domain.StepDef) (map[string]any, error) {
	merged := make(map[string]any, len(job.Spec.Config)+len(step.Config))
	for k, v := range job.Spec.Config {
		merged[k] = v
	}
	for k, v := range step.Config {
		merged[k] = v
	}
	return resolver.ResolveMap(merged)
}

// resolveTargets определяет список целей шага.
//
// Источник подбирается по приоритету:
//  1. input_from — значение из результата другого шага;
//  2. urls / url из конфигурации (после подстановки шаблонов);
//  3. base_url всего job.
//
// Относительные цели разрешаются против base_url. Пустая цель — провал
// шага: опечатка в извлечённой ссылке не должна молча превратиться в
// запрос на base_url.
func resolveTargets(resolver *engine.Resolver, job *domain.Job, step *domain.StepDef, cfg map[string]any) ([]string, error) {
	var raw any
	switch {
	case step.InputFrom != "":
		val, err := resolver.Resolve("{{" + step.InputFrom + "}}")
		if err != nil {
			return nil, fmt.Errorf("input_from %q: %w", step.InputFrom, err)
		}
		raw = val
	case cfg["urls"] != nil:
		raw = cfg["urls"]
	case cfg["url"] != nil:
		raw = cfg["url"]
	default:
		if job.Spec.BaseURL == "" {
			return nil, fmt.Errorf("%w: step has no input_from, no url in config and job has no base_url", ErrNoTarget)
		}
		raw = job.Spec.BaseURL
	}

	list := asTargets(raw)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s resolved to an empty list", ErrNoTarget, targetSource(step))
	}

	base, _ := url.Parse(job.Spec.BaseURL)
	out := make([]string, 0, len(list))
	for i, t := range list {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("%w: target %d of %d from %s is empty", ErrBlankTarget, i+1, len(list), targetSource(step))
		}
		out = append(out, absoluteTarget(base, t))
	}
	return out, nil
}

// targetSource описывает источник целей шага для текста ошибки.
func targetSource(step *domain.StepDef) string {
	if step.InputFrom != "" {
		return fmt.Sprintf("input_from %q", step.InputFrom)
	}
	return "config"
}

// asTargets приводит значение любого поддерживаемого вида к списку
// целей. Скаляр становится списком из одного элемента.
func asTargets(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, anyString(item))
		}
		return out
	default:
		return []string{anyString(raw)}
	}
}

// anyString приводит значение к строке. Числа печатаются без
// экспоненты, чтобы ID из JSON не превращались в "1.2345e+07".
func anyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// absoluteTarget разрешает относительную цель против base_url.
// Абсолютные URL и цели без базы возвращаются как есть: совсем
// некорректный URL отловит стратегия при разборе.
func absoluteTarget(base *url.URL, target string) string {
	if base == nil || base.Host == "" || strings.Contains(target, "://") {
		return target
	}
	ref, err := url.Parse(target)
	if err != nil {
		return target
	}
	return base.ResolveReference(ref).String()
}

// stepTimeout выбирает таймаут шага: шаг → defaults job → значение Runner.
func stepTimeout(job *domain.Job, step *domain.StepDef, fallback time.Duration) time.Duration {
	if step.TimeoutSec > 0 {
		return time.Duration(step.TimeoutSec) * time.Second
	}
	if d := job.Spec.Defaults; d != nil && d.TimeoutSec > 0 {
		return time.Duration(d.TimeoutSec) * time.Second
	}
	return fallback
}

// stepRetry выбирает политику повторов: шаг → defaults job → без повторов.
func stepRetry(job *domain.Job, step *domain.StepDef) *domain.RetryPolicy {
	if step.Retry != nil {
		return step.Retry
	}
	if d := job.Spec.Defaults; d != nil {
		return d.Retry
	}
	return nil
}

// stepBatchSize выбирает размер пачки обхода целей:
// config.batch_size → defaults job → размер по умолчанию.
func stepBatchSize(job *domain.Job, cfg map[string]any) int {
	if n, ok := metaInt(cfg, "batch_size"); ok && n > 0 {
		return n
	}
	if d := job.Spec.Defaults; d != nil && d.BatchSize > 0 {
		return d.BatchSize
	}
	return fetch.DefaultBatchSize
}

// applyMinSuccessRatio применяет порог успешности обхода: если доля
// успешных целей ниже min_success_ratio из конфигурации, шаг считается
// провалившимся, даже когда часть целей отработала.
func applyMinSuccessRatio(res *domain.StepResult, cfg map[string]any) {
	ratio := configFloat(cfg, "min_success_ratio")
	if ratio <= 0 || !res.Success() {
		return
	}
	total, ok := metaInt(res.Metadata, domain.MetaTargets)
	if !ok || total == 0 {
		return
	}
	failed := 0
	if errs, ok := res.Metadata[domain.MetaErrors].([]string); ok {
		failed = len(errs)
	}
	got := float64(total-failed) / float64(total)
	if got < ratio {
		res.Error = fmt.Sprintf("success ratio %.2f below min_success_ratio %.2f (%d of %d targets)",
			got, ratio, total-failed, total)
	}
}

// configFloat читает число с плавающей точкой из конфигурации.
func configFloat(cfg map[string]any, key string) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// metaInt читает целое из карты метаданных или конфигурации,
// учитывая числовые типы после JSON-декодирования.
func metaInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// metaInt64 — как metaInt, но без потери диапазона int64.
func metaInt64(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
