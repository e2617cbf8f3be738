package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/metrics"
)

// ErrNoDataReturned プロバイダーがエラーもデータも返さなかった
var ErrNoDataReturned = errors.New("no data returned from geo provider")

// ErrSessionUnavailable 地図プロバイダーのセッションを初期化できなかった
var ErrSessionUnavailable = errors.New("geo provider session unavailable")

type settlement[V any] struct {
	value V
	err   error
}

// singleSettlement はコールバック型の外部呼び出しを、1度だけ確定する同期呼び出しに変換する
//   - issue: 外部呼び出しを1回だけ発行し、キャンセル用のIDを返す
//   - extract: データがあれば結果に変換する（falseはデータなし）
//   - cancel: キャンセル用のフック（nilならキャンセル不可）
type singleSettlement[R any, V any] struct {
	operation string
	issue     func(done func(err error, data *R)) model.RequestID
	extract   func(data *R) (V, bool)
	cancel    func(id model.RequestID)
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// await は外部呼び出しが確定するまで待つ
// signalがキャンセルされた場合はcancelフックを1度だけ呼び、その後のプロバイダーの確定結果をそのまま返す。
func (s singleSettlement[R, V]) await(signal context.Context) (V, error) {
	start := time.Now()
	results := make(chan settlement[V], 1)
	var once sync.Once
	var done atomic.Bool

	id := s.issue(func(err error, data *R) {
		settled := false
		once.Do(func() {
			settled = true
			done.Store(true)
			results <- s.settle(err, data)
		})
		if !settled {
			s.logger.Warn("確定済みのリクエストに対する重複コールバックを無視", zap.String("operation", s.operation))
		}
	})

	stop := func() bool { return false }
	if s.cancel != nil && signal != nil {
		stop = context.AfterFunc(signal, func() {
			if done.Load() {
				return
			}
			s.logger.Debug("リクエストをキャンセル",
				zap.String("operation", s.operation),
				zap.String("request_id", string(id)))
			s.metrics.IncProviderCancel(s.operation)
			s.cancel(id)
		})
	}

	res := <-results
	// 確定後はキャンセルしない
	stop()
	outcome := "ok"
	switch {
	case errors.Is(res.err, ErrNoDataReturned):
		outcome = "no_data"
	case res.err != nil:
		outcome = "error"
	}
	s.metrics.ObserveProviderRequest(s.operation, outcome, time.Since(start))
	return res.value, res.err
}

func (s singleSettlement[R, V]) settle(err error, data *R) settlement[V] {
	if err != nil {
		s.logger.Error("geoプロバイダーがエラーを返しました", zap.String("operation", s.operation), zap.Error(err))
		return settlement[V]{err: err}
	}
	if data != nil {
		if v, ok := s.extract(data); ok {
			return settlement[V]{value: v}
		}
	}
	s.logger.Error("geoプロバイダーがデータを返しませんでした", zap.String("operation", s.operation))
	return settlement[V]{err: ErrNoDataReturned}
}
