// Package keypool は複数のAPIキー（またはキーごとのクライアント）を順番に使い回すプールを提供します。
package keypool

import (
	"errors"
	"sync"
)

// ErrEmpty は要素を持たないプールを表します。
var ErrEmpty = errors.New("keypool: no entries configured")

// Pool はラウンドロビンで要素を返すスレッドセーフなプールです。
type Pool[T any] struct {
	mu    sync.Mutex
	items []T
	next  int
}

// New はプールを生成します。items が空の場合は ErrEmpty を返します。
func New[T any](items []T) (*Pool[T], error) {
	if len(items) == 0 {
		return nil, ErrEmpty
	}
	cp := make([]T, len(items))
	copy(cp, items)
	return &Pool[T]{items: cp}, nil
}

// Next は次の要素を返し、カーソルを進めます。
func (p *Pool[T]) Next() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	item := p.items[p.next]
	p.next = (p.next + 1) % len(p.items)
	return item
}

// Len はプールの要素数を返します。
func (p *Pool[T]) Len() int {
	return len(p.items)
}
