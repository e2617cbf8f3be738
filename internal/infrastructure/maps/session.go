package maps

import (
	"context"

	"go.uber.org/zap"

	"TripCompare-App/internal/domain/helper"
	"TripCompare-App/internal/domain/service"
	"TripCompare-App/internal/metrics"
)

// NewSessionLoader はAppleMapsClientを初回利用時に1度だけ生成するローダーを返す
// 同時に来た初回呼び出しはトークン取得を共有する。失敗した場合は次回再試行する。
func NewSessionLoader(cfg ClientConfig, signer *TokenSigner, logger *zap.Logger, m *metrics.Collector) service.MapsClientLoader {
	loader := helper.NewLazyLoader(func(ctx context.Context) (*AppleMapsClient, error) {
		client, err := NewAppleMapsClient(ctx, cfg, signer, logger)
		if err != nil {
			m.IncSessionInit("error")
			return nil, err
		}
		m.IncSessionInit("ok")
		return client, nil
	})

	return func(ctx context.Context) (service.MapsClient, error) {
		client, err := loader.Get(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
