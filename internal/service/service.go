package service

import (
	"time"

	"github.com/google/wire"
)

// Clock is injected so ban expiry can be tested without sleeping.
type Clock func() time.Time

func SystemClock() Clock { return time.Now }

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	SystemClock,
	NewUserService,
	NewRankingService,
	NewVoteService,
	NewSuggestionService,
	NewReportService,
	NewModerationService,
	NewMovieService,
)
