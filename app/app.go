package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/kutuphane/library-service/config"
	"github.com/kutuphane/library-service/internal/handler"
	"github.com/kutuphane/library-service/internal/repository"
	"github.com/kutuphane/library-service/internal/server"
	"github.com/kutuphane/library-service/internal/service"
	"github.com/kutuphane/library-service/migrations"
	"github.com/kutuphane/library-service/pkg/kafka"
	"github.com/kutuphane/library-service/pkg/logger"
	"github.com/kutuphane/library-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	store, err := repository.NewStore(db, log)
	if err != nil {
		log.Fatal("store", zap.Error(err))
	}
	books := repository.NewBookRepo(store)
	users := repository.NewUserRepo(store)
	loans := repository.NewLoanRepo(store)

	pub := kafka.NopPublisher()
	var producer sarama.SyncProducer
	if cfg.KafkaEnabled {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		pub = kafka.NewPublisher(producer)
	}

	bookSvc := service.NewBookService(books, log)
	userSvc := service.NewUserService(users, log)
	lendingSvc := service.NewLendingService(books, users, loans, store, pub, log)

	h := handler.New(bookSvc, userSvc, lendingSvc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if producer != nil {
		if err = producer.Close(); err != nil {
			log.Error("producer.Close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
