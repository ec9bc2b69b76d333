package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"tradeAdmin/internal/config"
	"tradeAdmin/internal/handlers"
	"tradeAdmin/internal/repositories"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/web/templates"
	"tradeAdmin/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	cfg      config.Config

	store           *services.TradeStore
	tokens          *utils.Manager
	tradeHandler    *handlers.TradeHandler
	tradeAPIHandler *handlers.TradeAPIHandler
	statusHub       *StatusHub
}

func initializeApp(ctx context.Context, cfg config.Config, db *sql.DB, tradeCache services.TradeCache, errorLog, infoLog *log.Logger) (*application, error) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tokens, err := utils.NewManager(cfg.Session.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("session tokens: %w", err)
	}

	// Remote trade service
	client, err := services.NewTradeAPIClient(services.TradeAPIConfig{
		BaseURL: cfg.TradeAPI.BaseURL,
		Token:   cfg.TradeAPI.Token,
		Client:  &http.Client{Timeout: cfg.TradeAPI.Timeout},
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	// Activity journal
	var activityRepo *repositories.ActivityRepository
	opts := services.StoreOptions{Cache: tradeCache, Logger: logger}
	if db != nil {
		activityRepo = &repositories.ActivityRepository{DB: db, Driver: cfg.Database.Driver}
		if err := activityRepo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("activity schema: %w", err)
		}
		opts.Journal = activityRepo
	}

	store := services.NewTradeStore(client, opts)

	engine, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	// Handlers
	tradeHandler := &handlers.TradeHandler{
		Store:        store,
		Templates:    engine,
		UploadFolder: cfg.Storage.Folder,
		Logger:       logger,
	}
	if cfg.UploadsEnabled() {
		uploader, err := utils.NewImageUploader(utils.S3Config{
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			PublicURL: cfg.Storage.PublicURL,
			PathStyle: cfg.Storage.Endpoint != "",
		})
		if err != nil {
			return nil, fmt.Errorf("image uploader: %w", err)
		}
		tradeHandler.Uploader = uploader
	}

	tradeAPIHandler := &handlers.TradeAPIHandler{Store: store}
	if activityRepo != nil {
		tradeAPIHandler.Activity = activityRepo
	}

	hub := NewStatusHub(errorLog)
	store.Subscribe(hub.Publish)

	return &application{
		errorLog:        errorLog,
		infoLog:         infoLog,
		cfg:             cfg,
		store:           store,
		tokens:          tokens,
		tradeHandler:    tradeHandler,
		tradeAPIHandler: tradeAPIHandler,
		statusHub:       hub,
	}, nil
}
