package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/cdr"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/config"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/control"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/drain"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/ingress"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/session"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/stats"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/sweeper"
	"github.com/PavelShilinRussia/MyMiniPGW/internal/worker"
)

// logrus has no distinct "critical" level; both err and critical map to
// ErrorLevel's reporting threshold, per the config's log_level enum.
var logLevels = map[string]log.Level{
	"trace":    log.TraceLevel,
	"debug":    log.DebugLevel,
	"info":     log.InfoLevel,
	"warn":     log.WarnLevel,
	"err":      log.ErrorLevel,
	"critical": log.ErrorLevel,
}

const statsSnapshotInterval = 10 * time.Second

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		log.SetOutput(os.Stderr)
		log.Fatalf("usage: server <config-path>")
	}
	configPath := flag.Arg(0)

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	log.SetOutput(logFile)
	if lvl, ok := logLevels[cfg.LogLevel]; ok {
		log.SetLevel(lvl)
	}

	logger := log.StandardLogger()
	logger.Infof("starting pgw emulator: udp=%s:%d http=%d", cfg.UDPIP, cfg.UDPPort, cfg.HTTPPort)

	cdrWriter, err := cdr.NewWriter(cfg.CDRFile)
	if err != nil {
		log.Fatalf("failed to open cdr file: %v", err)
	}
	defer cdrWriter.Close()

	counters := stats.New()
	cdrWriter.SetObserver(counters)

	sessions := session.NewTable()
	sessionTimeout := time.Duration(cfg.SessionTimeoutSec) * time.Second
	ctx := pgwctx.New(sessions, cdrWriter, counters, cfg.Blacklist, sessionTimeout, logger)

	queue := ingress.NewQueue()
	listener, err := ingress.Listen(cfg.UDPIP, cfg.UDPPort, queue, ctx)
	if err != nil {
		log.Fatalf("failed to bind udp socket: %v", err)
	}

	pool := worker.NewPool(worker.DefaultPoolSize, queue, listener.Conn(), ctx)
	pool.Start()

	var tasks sync.WaitGroup

	tasks.Add(1)
	go func() {
		defer tasks.Done()
		listener.Run()
		queue.Shutdown()
	}()

	tasks.Add(1)
	go func() {
		defer tasks.Done()
		sweeper.Run(ctx)
	}()

	tasks.Add(1)
	go func() {
		defer tasks.Done()
		snapshotPath := filepath.Join(filepath.Dir(cfg.CDRFile), "stats-snapshot.json")
		runStatsSnapshotter(ctx, snapshotPath)
	}()

	httpDone := make(chan struct{})
	var closeOnce sync.Once
	finish := func() {
		closeOnce.Do(func() {
			listener.Close()
			pool.Wait()
			close(httpDone)
		})
	}

	httpServer := control.New(cfg.HTTPPort, ctx, cfg.GracefulShutdownRate, finish)

	// A SIGINT/SIGTERM triggers the same shutdown path as the HTTP /stop
	// endpoint: RequestShutdown is idempotent, so whichever trigger fires
	// first runs the drain exactly once.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("signal received, triggering graceful shutdown")
		if first := ctx.RequestShutdown(); first {
			go func() {
				drain.Run(ctx, cfg.GracefulShutdownRate)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
				finish()
			}()
		}
	}()

	if err := httpServer.Run(); err != nil {
		logger.Errorf("control server error: %v", err)
	}

	<-httpDone
	tasks.Wait()
	logger.Info("shutdown complete")
}

func runStatsSnapshotter(ctx *pgwctx.Context, path string) {
	ticker := time.NewTicker(statsSnapshotInterval)
	defer ticker.Stop()

	for {
		if ctx.ShuttingDown() {
			return
		}
		<-ticker.C
		if ctx.ShuttingDown() {
			return
		}
		snap := ctx.Stats.Snapshot(ctx.Sessions.Size())
		stats.SaveSnapshot(path, snap)
	}
}
