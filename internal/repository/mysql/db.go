package mysql

import (
	"fmt"
	"time"

	"Title_Vote/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProviderSet is repository providers. Every repository only needs the *gorm.DB.
var ProviderSet = wire.NewSet(
	wire.Struct(new(UserRepository), "*"),
	wire.Struct(new(MovieRepository), "*"),
	wire.Struct(new(SuggestionRepository), "*"),
	wire.Struct(new(CommentRepository), "*"),
	wire.Struct(new(VoteRepository), "*"),
	wire.Struct(new(ReportRepository), "*"),
	wire.Struct(new(BanRepository), "*"),
	wire.Struct(new(OutboxRepository), "*"),
	wire.Struct(new(ReconcileRepository), "*"),
)

// Models lists every table the service owns, in migration order.
var Models = []any{
	&model.User{},
	&model.Movie{},
	&model.TitleSuggestion{},
	&model.Vote{},
	&model.Comment{},
	&model.Report{},
	&model.RemovedSuggestion{},
	&model.UserBan{},
	&model.EventOutbox{},
}

// InitDB opens the configured dialector, sizes the pool and migrates the schema.
func InitDB(driver, dsn string, logger log.Logger) (*gorm.DB, func(), error) {
	l := log.NewHelper(log.With(logger, "module", "repository/db"))

	var dialector gorm.Dialector
	switch driver {
	case "mysql", "":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err = db.AutoMigrate(Models...); err != nil {
		l.Errorf("auto migrate failed: %v", err)
		_ = sqlDB.Close()
		return nil, nil, err
	}
	l.Infof("database connected driver=%s", driver)

	cleanup := func() {
		if err := sqlDB.Close(); err != nil {
			l.Errorf("failed to close database: %v", err)
		}
	}
	return db, cleanup, nil
}
