package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/inboxlab/message-dispatch/internal/activity"
	"github.com/inboxlab/message-dispatch/internal/api"
	"github.com/inboxlab/message-dispatch/internal/blob"
	"github.com/inboxlab/message-dispatch/internal/client"
	"github.com/inboxlab/message-dispatch/internal/config"
	"github.com/inboxlab/message-dispatch/internal/journal"
	"github.com/inboxlab/message-dispatch/internal/repo"
	"github.com/inboxlab/message-dispatch/internal/saga"
	"github.com/inboxlab/message-dispatch/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	profiles := repo.NewPostgresProfileRepo(db)
	prefs := repo.NewPostgresPreferenceRepo(db)
	messages := repo.NewPostgresMessageRepo(db)
	notifications := repo.NewPostgresNotificationRepo(db)
	statuses := repo.NewPostgresStatusRepo(db)
	senderRefs := repo.NewPostgresSenderReferenceRepo(db)
	inbox := repo.NewPostgresInboxRepo(db)

	contentStore := blob.NewRedisContentStore(rdb, cfg.Redis.ContentTTL)

	exec := journal.NewExecutor(
		journal.NewRedisStore(rdb, 0),
		journal.RetryPolicy{Interval: cfg.Retry.Interval, MaxAttempts: cfg.Retry.MaxAttempts},
		logger,
	)

	mailer := client.NewSMTPClient(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPass,
		cfg.Email.From,
	)
	webhookClient := client.NewWebhookClient(cfg.Webhook.EndpointURL, cfg.Webhook.APIKey)

	orch := saga.New(
		exec,
		activity.NewContentStoreActivity(profiles, prefs, messages, contentStore, logger),
		activity.NewNotificationActivity(notifications, senderRefs, cfg.Webhook.EndpointURL, logger),
		activity.NewEmailDeliveryActivity(messages, contentStore, notifications, mailer, logger),
		activity.NewWebhookDeliveryActivity(messages, contentStore, notifications, webhookClient, logger),
		activity.NewStatusActivity(statuses, logger),
		logger,
	)

	dispatcher := scheduler.NewDispatcher(inbox, orch, cfg.Scheduler.BatchSize, cfg.Scheduler.StaleTimeout, logger)
	sched, err := scheduler.New(cfg.Scheduler.Interval, dispatcher.Tick, logger)
	if err != nil {
		log.Fatal(err)
	}
	sched.Start()

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: api.Router(api.NewHandler(sched, statuses)),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
