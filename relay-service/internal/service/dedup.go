package service

import (
	"sync"
	"time"
)

// DedupCache — маленький in-memory набор уже обработанных webhookEventId
// с TTL. Платформа может доставить одно и то же событие повторно при
// таймауте; включенная дедупликация подавляет повторный ответ.
type DedupCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

// NewDedupCache создает кеш дедупликации. ttl <= 0 означает "выключено" —
// возвращается nil, и вызывающий код пропускает проверку.
func NewDedupCache(ttl time.Duration) *DedupCache {
	if ttl <= 0 {
		return nil
	}
	return &DedupCache{
		ttl:  ttl,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// FirstSeen возвращает true, если событие встречается впервые (и запоминает
// его). Пустой идентификатор никогда не подавляется.
func (d *DedupCache) FirstSeen(eventID string) bool {
	if eventID == "" {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	// Ленивая чистка протухших записей
	for id, seenAt := range d.seen {
		if now.Sub(seenAt) > d.ttl {
			delete(d.seen, id)
		}
	}

	if seenAt, ok := d.seen[eventID]; ok && now.Sub(seenAt) <= d.ttl {
		return false
	}
	d.seen[eventID] = now
	return true
}
