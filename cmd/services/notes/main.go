package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	config "github.com/echonotes/backend/config/notes"
	"github.com/echonotes/backend/pkg/blob"
	"github.com/echonotes/backend/pkg/gen"
	"github.com/echonotes/backend/pkg/logger"
	"github.com/echonotes/backend/services/notes/clients/openai"
	"github.com/echonotes/backend/services/notes/server"
	"github.com/echonotes/backend/services/notes/storage"
	"github.com/echonotes/backend/services/notes/usecase"
)

func main() {
	log := logger.New(logger.Config{
		Level:      slog.LevelDebug,
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})

	cfg := config.MustLoad()

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		return
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, err := storage.NewDB(cfg.Store.DSN, log)
	if err != nil {
		log.Error("failed to open document store", slog.String("error", err.Error()))
		return err
	}
	stg := storage.New(db, gen.UUID())

	uploader, err := blob.New(ctx, cfg.Blob, log)
	if err != nil {
		log.Error("failed to create blob store", slog.String("error", err.Error()))
		return err
	}

	ai := openai.New(&cfg.OpenAI)
	usc := usecase.New(ai, ai, uploader, stg)

	srv := server.New(cfg, log, usc)
	return srv.Start(ctx)
}
