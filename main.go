package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"puncharena/server"
)

// PunchArena 入口：加载配置，启动竞技场协程与 HTTP + WebSocket 服务
func main() {
	cfg, err := server.LoadConfig(os.Args[1:], ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log, err := server.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	arena := server.NewArena(server.ArenaOptions{
		InboxSize:     cfg.InboxSize,
		StatsInterval: cfg.StatsInterval,
	}, log.Named("arena"))
	go arena.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewServer(cfg, arena, log.Named("http")).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("PunchArena listening on %s; open http://localhost%v/", cfg.Addr, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
}
