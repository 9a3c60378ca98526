package logger

import (
	"go.uber.org/zap"
)

// NOOPLogger discards everything. Used when no logger is configured.
var NOOPLogger = zap.NewNop().Sugar()

// New builds a sugared logger: development config for local runs,
// production (JSON) config everywhere else.
func New(appEnv string) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	switch appEnv {
	case "", "local", "development", "test":
		l, err = zap.NewDevelopment()
	default:
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("app_env", appEnv), nil
}
