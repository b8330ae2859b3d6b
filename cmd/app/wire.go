//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/heartcheck/internal/bootstrap"
	"github.com/yanqian/heartcheck/internal/domain/assessment"
	"github.com/yanqian/heartcheck/internal/domain/auth"
	"github.com/yanqian/heartcheck/internal/domain/explainer"
	"github.com/yanqian/heartcheck/internal/domain/report"
	"github.com/yanqian/heartcheck/internal/infra/config"
	httpiface "github.com/yanqian/heartcheck/internal/interface/http"
	"github.com/yanqian/heartcheck/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAssessmentConfig,
		provideReportConfig,
		provideExplainerConfig,
		provideAuthConfig,
		provideChatClient,
		provideAssessmentRepository,
		provideAuthRepository,
		provideObjectStorage,
		provideShareStore,
		provideAuthHandler,
		assessment.NewService,
		report.NewService,
		explainer.NewService,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
