// Package dedup — отпечатки содержимого для отсева дублей внутри запуска.
//
// Повторный обход часто приводит на одну и ту же страницу разными
// путями (пагинация, перекрёстные ссылки). Отпечаток xxhash тела
// позволяет пометить дубль, не храня сами тела.
package dedup

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Hash возвращает 64-битный отпечаток содержимого.
func Hash(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// HexHash возвращает отпечаток содержимого в шестнадцатеричной записи —
// удобная форма для метаданных результата и БД.
func HexHash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// Tracker — множество отпечатков, виденных в рамках одного запуска.
// Не потокобезопасен: runner сворачивает результаты последовательно.
type Tracker struct {
	seen map[string]struct{}
}

// NewTracker создаёт пустой Tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Seen отмечает отпечаток и сообщает, встречался ли он раньше.
func (t *Tracker) Seen(hash string) bool {
	if hash == "" {
		return false
	}
	if _, ok := t.seen[hash]; ok {
		return true
	}
	t.seen[hash] = struct{}{}
	return false
}

// Len — число уникальных отпечатков.
func (t *Tracker) Len() int {
	return len(t.seen)
}
