package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server 把竞技场挂到 HTTP 上：WebSocket 接入、管理接口与静态资源
type Server struct {
	cfg      Config
	arena    *Arena
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewServer(cfg Config, arena *Arena, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Timeouts.PingPeriod <= 0 || cfg.Timeouts.PongWait <= 0 {
		cfg.Timeouts = DefaultConfig().Timeouts
	}
	return &Server{
		cfg:      cfg,
		arena:    arena,
		log:      log,
		upgrader: newUpgrader(),
	}
}

// Routes 注册所有路由
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/roster", s.HandleRoster)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}
