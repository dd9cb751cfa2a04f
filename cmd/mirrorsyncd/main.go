// Command mirrorsyncd is a minimal demo binary wiring the library end to
// end: an echo-based HTTP listener upgrades clients to WebSocket, each
// connection joins a syncserver.Shared around a demo document, and a
// health checker aggregates per-client liveness. It has no CLI framework,
// matching the teacher's own cmd/nnc/main.go.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Kurble/mirror/config"
	"github.com/Kurble/mirror/health"
	"github.com/Kurble/mirror/mirror"
	"github.com/Kurble/mirror/syncserver"
	"github.com/Kurble/mirror/telemetry"
	"github.com/Kurble/mirror/transport"
)

// Document is the demo's replicated root value. It registers itself with
// mirror's struct descriptor registry in init, below.
type Document struct {
	Counter int      `json:"counter"`
	Items   []string `json:"items"`
}

func init() {
	mirror.RegisterStruct[Document](&mirror.StructDescriptor{
		Fields: []mirror.FieldRoute{
			{Name: "counter", Get: func(self any) any { return &self.(*Document).Counter }},
			{Name: "items", Get: func(self any) any { return &self.(*Document).Items }},
		},
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	dev := flag.Bool("dev", false, "use development logging defaults")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mirrorsyncd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logCfg := telemetry.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development, JSONOutput: cfg.Logging.JSONOutput}
	if *dev {
		logCfg = telemetry.DevelopmentConfig()
	}
	telemetry.Init(logCfg)
	defer telemetry.Sync()

	shared := syncserver.NewShared(&Document{Items: []string{}})
	checker := health.NewChecker()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.GET("/ws", func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		remote := transport.NewWebSocket(conn, transport.DefaultWebSocketConfig())
		shared.Join(remote)
		checker.RegisterProbe(health.NewRemoteProbe(c.RealIP(), remote))
		return nil
	})

	e.GET("/healthz", func(c echo.Context) error {
		status := checker.Check(c.Request().Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	})

	stop := make(chan struct{})
	go runTicker(shared, stop)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port)
		telemetry.L().Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.L().Fatal("listen failed", zap.Error(err))
		}
	}()

	<-quit
	close(stop)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		telemetry.L().Error("shutdown failed", zap.Error(err))
	}
}

// runTicker drives the single-threaded update loop spec.md §5 requires:
// no background mutation of shared.Value happens anywhere except here.
func runTicker(shared *syncserver.Shared, stop <-chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := shared.Update(); err != nil {
				telemetry.L().Warn("update failed", zap.Error(err))
			}
		case <-stop:
			return
		}
	}
}
