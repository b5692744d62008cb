// Package cache — generic in-memory TTL cache.
//
// TTLCache, süresi dolan kayıtları otomatik düşüren thread-safe,
// generic bir cache'tir. Arama sonuçlarındaki profil dekorasyonu ve
// aktif arama listelerindeki kullanıcı bilgisi gibi "sık okunan,
// nadiren değişen" veriler için kullanılır — her istekte DB query
// atmak yerine kısa süreli bellekte tutulur.
//
// sync.RWMutex ile korunur: birden fazla goroutine aynı anda
// okuyabilir, yazma sırasında tüm erişim bloklanır.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, generic in-memory TTL cache.
//
//	c := cache.New[string, models.Profile](30*time.Second, 5*time.Minute)
//	c.Set("user-id", profile)
//	p, ok := c.Get("user-id")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration

	stopCleanup chan struct{}
}

// New, yeni bir TTLCache oluşturur ve periyodik temizleme
// goroutine'ini başlatır.
//
// Her Get'te süre kontrolü yapılır (stale entry dönmez), ama map'ten
// fiziksel silme cleanupInterval'da bir yapılır — Get'i hızlı tutmak
// için (RLock yeterli, Lock gerekmez).
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, cache'ten bir değer okur.
// Key yoksa veya süresi dolmuşsa (zero value, false) döner.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, cache'e bir değer yazar (TTL ile).
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete, belirli bir key'i cache'ten siler.
// Kullanım: profil güncellendiğinde ilgili entry'yi invalidate etmek.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Close, temizleme goroutine'ini durdurur ve cache'i boşaltır.
func (c *TTLCache[K, V]) Close() {
	close(c.stopCleanup)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

func (c *TTLCache[K, V]) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
