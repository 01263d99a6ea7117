package service

import (
	"context"
	"sync"
)

// SymbolLocker 每个交易对一把互斥锁
// 读单-撮合-结算-提交全程持锁，同一交易对同一时刻只允许一轮撮合
// 不同交易对互不影响
type SymbolLocker interface {
	Lock(ctx context.Context, symbol string) (release func(), err error)
}

// localSymbolLocker 进程内实现：symbol -> 容量1的信号量
// 等锁期间 ctx 取消即返回，与 consul 实现的语义一致
type localSymbolLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalSymbolLocker() SymbolLocker {
	return &localSymbolLocker{locks: make(map[string]chan struct{})}
}

func (l *localSymbolLocker) Lock(ctx context.Context, symbol string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[symbol]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[symbol] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
