package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/api"
	"main/internal/feed"
	"main/internal/journal"
	"main/internal/ops"
	"main/internal/order"
	"main/internal/order/delegator/binance"
	"main/internal/order/delegator/paper"
	"main/internal/transport"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	listen := flag.String("listen", "", "Listen address override")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("config load failed, err: %+v", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := setupJournal(ctx, cfg.Journal)
	engine, err := order.NewEngine(setupDelegator(cfg.Order), rec)
	if err != nil {
		logs.Errorf("engine init failed, err: %+v", err)
		os.Exit(1)
	}

	hub := feed.NewHub(cfg.Feed.SupervisorConfig())
	ws := transport.NewServer(hub)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.Register(router, engine, ws.Handler())

	srv := &http.Server{Addr: cfg.Listen, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Errorf("serve failed, err: %+v", err)
			os.Exit(1)
		}
	}()
	logs.Infof("listening on %s", cfg.Listen)

	<-sys.Shutdown()
	logs.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// setupDelegator picks the exchange adapter: credentials present means live
// trading, absent means the paper exchange. Callers of the engine can't tell
// the difference, which is the point.
func setupDelegator(cfg ops.OrderConfig) order.Delegator {
	creds := ops.LoadCredentials()
	if !creds.Configured() {
		logs.Info("no exchange credentials, using paper exchange")
		return paper.NewDelegator()
	}

	d := binance.NewDelegator(&http.Client{Timeout: 20 * time.Second}, creds.Key, creds.Secret)
	if cfg.BaseURL != "" {
		d = d.WithBaseURL(cfg.BaseURL)
	}
	logs.Info("live exchange adapter configured")
	return d
}

func setupJournal(ctx context.Context, cfg ops.JournalConfig) order.Recorder {
	if !cfg.Enabled() {
		return nil
	}
	db, err := conn.Open(cfg.ConnOption())
	if err != nil {
		logs.Warnf("journal database unreachable, running without journal, err: %+v", err)
		return nil
	}
	sink, err := journal.NewSink(db)
	if err != nil {
		logs.Warnf("journal init failed, running without journal, err: %+v", err)
		return nil
	}
	go sink.Run(ctx)
	return sink
}
