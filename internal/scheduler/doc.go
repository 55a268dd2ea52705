// Пакет scheduler реализует планировщик запусков по расписанию.
//
// # Обзор
//
// Планировщик периодически опрашивает таблицу schedules, находит
// расписания с next_due_at <= now и создаёт для них runs. Созданный
// run наследует параметры и приоритет расписания и публикуется в
// очередь runs.pending.
//
// Структура пакета:
//
//   - scheduler.go — Scheduler и логика тика
//   - cron.go — вычисление next_due_at (cron-выражения и интервалы)
//
// # Использование
//
//	sched := scheduler.New(scheduler.Config{
//		ScheduleRepo: scheduleRepo,
//		RunRepo:      runRepo,
//		JobRepo:      jobRepo,
//		Publisher:    publisher,
//		Logger:       logger,
//	})
//
//	ticker := time.NewTicker(time.Second)
//	for range ticker.C {
//		if err := sched.Tick(ctx); err != nil {
//			logger.Error("tick failed", "error", err)
//		}
//	}
//
// # Идемпотентность
//
// Для каждого слота расписания создаётся ровно один run: idempotency
// key "{schedule_id}_{next_due_at_unix}" защищает от дублей при
// перезапуске планировщика и при гонке между экземплярами.
//
// # Leader Election
//
// Сам пакет не решает, сколько экземпляров планировщика работает
// одновременно. Бинарник cmd/trawler-scheduler берёт PostgreSQL
// advisory lock (pg_try_advisory_lock) и тикает только будучи
// лидером, поэтому в кластере активен один планировщик.
package scheduler
