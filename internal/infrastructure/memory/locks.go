package memory

import (
	"context"
	"sync"
)

// keyedLocks - мьютексы по ключу, ожидание которых прерывается контекстом.
// Канал с буфером 1 работает как мьютекс: запись захватывает, чтение освобождает.
// Слот живёт, пока его держат или ждут, затем удаляется.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{slots: make(map[string]*lockSlot)}
}

// ref берёт ссылку на слот, создавая его при необходимости.
func (k *keyedLocks) ref(key string) *lockSlot {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *keyedLocks) unref(key string, s *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

func (k *keyedLocks) acquire(ctx context.Context, key string) error {
	s := k.ref(key)
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.unref(key, s)
		return ctx.Err()
	}
}

func (k *keyedLocks) release(key string) {
	k.mu.Lock()
	s := k.slots[key]
	k.mu.Unlock()

	<-s.ch
	k.unref(key, s)
}

