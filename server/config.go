package server

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"puncharena/protocol"
)

// Timeouts WebSocket 连接的读写参数
type Timeouts struct {
	ReadLimit  int64
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// Config 服务端配置：默认值 ← 环境变量（可来自 .env）← 命令行参数
type Config struct {
	Addr          string
	StaticDir     string
	Codec         string
	SendQueue     int
	InboxSize     int
	StatsInterval time.Duration
	Timeouts      Timeouts
	Log           LogConfig
}

func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		StaticDir:     "web",
		Codec:         "json",
		SendQueue:     64,
		InboxSize:     1024,
		StatsInterval: 30 * time.Second,
		Timeouts: Timeouts{
			ReadLimit:  1 << 20, // 1MB
			PongWait:   60 * time.Second,
			PingPeriod: 54 * time.Second,
			WriteWait:  5 * time.Second,
		},
		Log: LogConfig{
			File:    "app.log",
			Level:   "info",
			Console: true,
		},
	}
}

// LoadConfig 解析配置。envFile 不存在时忽略。
func LoadConfig(args []string, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()
	var err error
	env := func(key string, apply func(string) error) {
		v, ok := os.LookupEnv(key)
		if !ok || err != nil {
			return
		}
		if e := apply(v); e != nil {
			err = fmt.Errorf("%s: %w", key, e)
		}
	}
	env("ARENA_ADDR", func(v string) error { cfg.Addr = v; return nil })
	env("ARENA_STATIC_DIR", func(v string) error { cfg.StaticDir = v; return nil })
	env("ARENA_CODEC", func(v string) error { cfg.Codec = v; return nil })
	env("ARENA_SEND_QUEUE", intVar(&cfg.SendQueue))
	env("ARENA_INBOX_SIZE", intVar(&cfg.InboxSize))
	env("ARENA_STATS_INTERVAL", durationVar(&cfg.StatsInterval))
	env("ARENA_PONG_WAIT", durationVar(&cfg.Timeouts.PongWait))
	env("ARENA_PING_PERIOD", durationVar(&cfg.Timeouts.PingPeriod))
	env("ARENA_WRITE_WAIT", durationVar(&cfg.Timeouts.WriteWait))
	env("ARENA_LOG_FILE", func(v string) error { cfg.Log.File = v; return nil })
	env("ARENA_LOG_LEVEL", func(v string) error { cfg.Log.Level = v; return nil })
	env("ARENA_LOG_CONSOLE", func(v string) error {
		b, e := strconv.ParseBool(v)
		cfg.Log.Console = b
		return e
	})
	if err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("puncharena", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. :8080")
	fset.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory served at / (empty disables)")
	fset.StringVar(&cfg.Codec, "codec", cfg.Codec, "default wire codec: json or msgpack")
	fset.IntVar(&cfg.SendQueue, "send-queue", cfg.SendQueue, "per-connection outbound queue length")
	fset.DurationVar(&cfg.StatsInterval, "stats-interval", cfg.StatsInterval, "arena stats log interval (0 disables)")
	fset.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "rolling log file path (empty disables)")
	fset.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	fset.BoolVar(&cfg.Log.Console, "log-console", cfg.Log.Console, "also log to stderr")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if _, err := protocol.Lookup(cfg.Codec); err != nil {
		return Config{}, err
	}
	if cfg.Timeouts.PingPeriod >= cfg.Timeouts.PongWait {
		return Config{}, fmt.Errorf("ping period %v must be shorter than pong wait %v", cfg.Timeouts.PingPeriod, cfg.Timeouts.PongWait)
	}
	return cfg, nil
}

func intVar(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
