package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New APP_ENVに応じたzapロガーを作成する
// production以外では人間が読みやすい開発用の設定を使う。
func New(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// NewNamed サービス名付きのロガーを作成する
func NewNamed(appEnv, name string) (*zap.Logger, error) {
	l, err := New(appEnv)
	if err != nil {
		return nil, err
	}
	return l.Named(name), nil
}
