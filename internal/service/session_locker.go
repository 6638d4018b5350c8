package service

import (
	"context"
	"fmt"
	"sync"
)

// SessionLocker 串行化同一 (test, user) 会话上的获取/创建、提交与关闭
type SessionLocker interface {
	Lock(ctx context.Context, testID, userID uint) (unlock func(), err error)
}

func sessionLockKey(testID, userID uint) string {
	return fmt.Sprintf("test_passing:%d:%d", testID, userID)
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// LocalSessionLocker 进程内按 key 加锁，等待期间响应 ctx 取消
type LocalSessionLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewLocalSessionLocker() *LocalSessionLocker {
	return &LocalSessionLocker{locks: make(map[string]*lockEntry)}
}

func (l *LocalSessionLocker) Lock(ctx context.Context, testID, userID uint) (func(), error) {
	key := sessionLockKey(testID, userID)

	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, e, true) })
	}, nil
}

func (l *LocalSessionLocker) release(key string, e *lockEntry, held bool) {
	if held {
		<-e.ch
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
