package helper

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LazyLoader は高コストな初期化を1度だけ行い、結果をプロセス内で共有する
// 同時に呼ばれた初回の呼び出しは1つの初期化にまとめられる。
// 失敗した結果はキャッシュせず、次の呼び出しで再試行する。破棄処理はない。
type LazyLoader[T any] struct {
	init  func(ctx context.Context) (T, error)
	group singleflight.Group

	mu    sync.RWMutex
	value T
	ready bool
}

// NewLazyLoader 新しいLazyLoaderを作成
func NewLazyLoader[T any](init func(ctx context.Context) (T, error)) *LazyLoader[T] {
	return &LazyLoader[T]{init: init}
}

// Get 初期化済みの値を返す。未初期化なら初期化を待つ
// ctxがキャンセルされても進行中の初期化は止めず、この呼び出しだけが待機をやめる。
func (l *LazyLoader[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.loaded(); ok {
		return v, nil
	}

	ch := l.group.DoChan("init", func() (interface{}, error) {
		if v, ok := l.loaded(); ok {
			return v, nil
		}
		v, err := l.init(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.value = v
		l.ready = true
		l.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (l *LazyLoader[T]) loaded() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.ready
}
