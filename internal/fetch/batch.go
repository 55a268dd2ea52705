package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize — размер пачки параллельного обхода целей.
const DefaultBatchSize = 100

// ForEachBatch обходит цели пачками размера batchSize: все вызовы
// одной пачки стартуют одновременно и ожидаются вместе, и только
// затем стартует следующая пачка.
//
// fn обязана складывать результат по индексу i сама и возвращать
// ошибку только при отмене контекста: провал отдельной цели — не
// повод останавливать пачку.
func ForEachBatch(ctx context.Context, targets []string, batchSize int, fn func(ctx context.Context, i int, target string) error) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(targets); start += batchSize {
		end := start + batchSize
		if end > len(targets) {
			end = len(targets)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				return fn(gctx, i, targets[i])
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// Между пачками проверяем отмену: лучше недобрать цели,
		// чем продолжать обход после cancel.
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
