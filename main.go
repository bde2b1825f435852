package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngviethoang/ai-chatbot/ai"
	"github.com/ngviethoang/ai-chatbot/bot"
	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/engine"
	"github.com/ngviethoang/ai-chatbot/holder"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
	"github.com/ngviethoang/ai-chatbot/registry"
	"github.com/ngviethoang/ai-chatbot/storage"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := core.MustLoad(*configPath)
	log := setupLogger(conf.Env)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Model),
		slog.String("storage", conf.Storage.Driver),
	).Info("starting ai chatbot")

	store := openStorage(conf, log)
	sessions := holder.NewSessionManager(store, log)

	services, err := registry.FromConfig(conf.Services, registry.Answerers{
		registry.AnswerChat:   ai.NewChat(conf, log),
		registry.AnswerAgents: ai.NewAgents(conf, log),
		registry.AnswerURL:    ai.NewURLChat(conf, log),
	})
	if err != nil {
		log.Error("loading services", sl.Err(err))
		return
	}
	log.Info("services loaded", slog.Int("count", services.Len()))

	var predictor core.Predictor
	if conf.ReplicateApiKey != "" {
		predictor = ai.NewReplicate(conf, log)
	} else {
		log.Warn("replicate api key is not set, prediction services are disabled")
	}

	handler := engine.New(log, services, sessions, engine.Backends{
		Predictor:   predictor,
		Images:      ai.NewDallE(conf, log),
		Transcriber: ai.NewWhisper(conf, log),
		Extractor:   ai.NewPageReader(conf, log),
	})

	tgBot, err := bot.NewTgBot(conf, handler, log)
	if err != nil {
		log.Error("creating telegram", sl.Err(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Error("bot stopped with error", sl.Err(err))
		}
	}()

	log.Info("bot started")

	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	cancel()
	tgBot.Stop()

	if err := sessions.Close(); err != nil {
		log.Error("closing storage", sl.Err(err))
	}

	log.Info("shutdown complete")
}

// openStorage picks the session store by driver; a database that cannot be
// reached falls back to memory so the bot still answers.
func openStorage(conf *core.Config, log *slog.Logger) storage.SessionStorage {
	driver := conf.Storage.Driver
	if conf.Mongo.Enabled {
		driver = "mongo"
	}

	switch driver {
	case "mongo":
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		store, err := storage.NewMongoStorage(mongoURI, conf.Mongo.Database, log)
		if err != nil {
			log.With(
				slog.String("db", conf.Mongo.Database),
				slog.String("user", conf.Mongo.User),
				slog.String("host", conf.Mongo.Host),
			).Error("falling back to memory", sl.Err(err))
			return storage.NewMemoryStorage()
		}
		log.Info("using MongoDB storage")
		return store
	case "sqlite":
		store, err := storage.NewSQLiteStorage(conf.SQLite.Path, log)
		if err != nil {
			log.Error("falling back to memory", slog.String("path", conf.SQLite.Path), sl.Err(err))
			return storage.NewMemoryStorage()
		}
		log.Info("using SQLite storage")
		return store
	}
	log.Info("using in-memory storage")
	return storage.NewMemoryStorage()
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
		log.Warn("unknown env, logging at info level", slog.String("env", env))
	}

	return log
}
