//go:build wireinject
// +build wireinject

package main

import (
	"Title_Vote/internal/config"
	"Title_Vote/internal/handler"
	"Title_Vote/internal/repository/mysql"
	"Title_Vote/internal/router"
	"Title_Vote/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init title vote application.
func wireApp(cfg config.Config, logger log.Logger) (*app, func(), error) {
	panic(wire.Build(
		newDB,
		newRedis,
		mysql.ProviderSet,
		newRankIndexes,
		newLocker,
		newRegistry,
		newResponseCache,
		newVerifier,
		newMailer,
		newSender,
		newRelayer,
		newReconciler,
		service.ProviderSet,
		handler.ProviderSet,
		router.InitRouter,
		newApp,
	))
}
