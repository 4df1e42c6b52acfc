package main

import (
	"Title_Vote/internal/config"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"
	redisrepo "Title_Vote/internal/repository/redis"
	"Title_Vote/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func newDB(cfg config.Config, logger log.Logger) (*gorm.DB, func(), error) {
	return mysql.InitDB(cfg.DBDriver, cfg.DBDSN, logger)
}

func newRedis(cfg config.Config, logger log.Logger) (*redis.Client, func(), error) {
	return redisrepo.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
}

func newRankIndexes(rdb *redis.Client) service.RankIndexes {
	return service.RankIndexes{
		Votes:  redisrepo.NewRankRepository(rdb, string(service.MetricVotes)),
		Views:  redisrepo.NewRankRepository(rdb, string(service.MetricViews)),
		Recent: redisrepo.NewRankRepository(rdb, string(service.MetricRecent)),
	}
}

func newLocker(rdb *redis.Client) service.Locker {
	return &redisrepo.DistLock{RDB: rdb}
}

func newRegistry(cfg config.Config, logger log.Logger) service.Registry {
	return pkg.NewKobisClient(pkg.KobisConfig{
		BaseURL:    cfg.KobisBaseURL,
		APIKey:     cfg.KobisAPIKey,
		Timeout:    cfg.KobisTimeout,
		MaxRetries: cfg.KobisMaxRetries,
	}, logger)
}

func newResponseCache(cfg config.Config, rdb *redis.Client) service.ResponseCache {
	return redisrepo.NewSearchCache(rdb, cfg.SearchCacheTTL)
}

func newVerifier(cfg config.Config) *pkg.TokenVerifier {
	return pkg.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
}

// newMailer returns nil when SMTP is not configured, which turns ban notices off.
func newMailer(cfg config.Config) service.Mailer {
	if !cfg.SMTP.Enabled() {
		return nil
	}
	smtp := pkg.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	return func(to, subject, body string) error {
		return pkg.SendEmail(smtp, to, subject, body)
	}
}

// newSender picks the outbox transport named by EVENT_BROKER.
func newSender(cfg config.Config, logger log.Logger) (service.Sender, func(), error) {
	switch cfg.EventBroker {
	case "kafka":
		p := pkg.NewKafkaPublisher(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		return service.KafkaSender(p), func() { _ = p.Close() }, nil
	case "rabbitmq":
		p := pkg.NewAMQPPublisher(pkg.AMQPConfig{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		return service.AMQPSender(p), func() { _ = p.Close() }, nil
	}
	return service.LogSender(logger), func() {}, nil
}

func newRelayer(cfg config.Config, repo *mysql.OutboxRepository, sender service.Sender, logger log.Logger) *service.OutboxRelayer {
	return service.NewOutboxRelayer(repo, sender, cfg.OutboxBatch, cfg.OutboxInterval, logger)
}

func newReconciler(cfg config.Config, repo *mysql.ReconcileRepository, rank *service.RankingService, logger log.Logger) *service.Reconciler {
	return service.NewReconciler(repo, rank, cfg.ReconcileBatch, cfg.ReconcileInterval, logger)
}

type app struct {
	engine     *gin.Engine
	rank       *service.RankingService
	relayer    *service.OutboxRelayer
	reconciler *service.Reconciler
}

func newApp(engine *gin.Engine, rank *service.RankingService, relayer *service.OutboxRelayer, reconciler *service.Reconciler) *app {
	return &app{engine: engine, rank: rank, relayer: relayer, reconciler: reconciler}
}
