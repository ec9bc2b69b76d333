package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	_ "modernc.org/sqlite"

	"tradeAdmin/internal/cache"
	"tradeAdmin/internal/config"
	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfgPath := flag.String("config", configPath, "Path to the YAML config file")
	addr := flag.String("addr", "", "HTTP network address (overrides server.address)")
	issueToken := flag.String("issue-token", "", "Print a session token for user_id:role and exit")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		errorLog.Fatal(err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	if *issueToken != "" {
		token, err := mintToken(cfg.Session.SigningKey, *issueToken)
		if err != nil {
			errorLog.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = openDB(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			errorLog.Fatal(err)
		}
		defer db.Close()
	} else {
		infoLog.Printf("database.url not set, activity journal disabled")
	}

	tradeCache, closeCache, err := openCache(ctx, cfg, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer closeCache()

	app, err := initializeApp(ctx, cfg, db, tradeCache, errorLog, infoLog)
	if err != nil {
		errorLog.Fatal(err)
	}

	go app.statusHub.Run(ctx)
	startTradeRefresher(ctx, app.store, cfg.Refresh.Interval, infoLog, errorLog)

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     errorLog,
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.TradeAPI.Timeout + 10*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errorLog.Printf("shutdown: %v", err)
		}
	}()

	infoLog.Printf("Starting server on %s", cfg.Server.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errorLog.Fatal(err)
	}
	infoLog.Printf("Server stopped")
}

func openDB(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
	}
	log.Printf("Successfully connected to %s database", driver)
	return db, nil
}

// openCache prefers Redis when configured and falls back to an in-process cache.
func openCache(ctx context.Context, cfg config.Config, infoLog *log.Logger) (services.TradeCache, func(), error) {
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		infoLog.Printf("trade cache: redis at %s", cfg.Cache.RedisAddr)
		return cache.NewRedis(rdb, cfg.Cache.TTL, "trade-admin"), func() { rdb.Close() }, nil
	}

	mem, err := cache.NewMemory(cfg.Cache.MaxCost, cfg.Cache.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("memory cache: %w", err)
	}
	infoLog.Printf("trade cache: in-process")
	return mem, mem.Close, nil
}

// mintToken signs a session token for local development from "user_id:role".
func mintToken(signingKey, subject string) (string, error) {
	userID, role, ok := strings.Cut(subject, ":")
	if !ok || userID == "" {
		return "", errors.New("issue-token expects user_id:role")
	}
	tokens, err := utils.NewManager(signingKey)
	if err != nil {
		return "", err
	}
	return tokens.NewJWT(userID, models.Role(role), 24*time.Hour)
}
