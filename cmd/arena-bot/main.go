package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"puncharena/client"
	"puncharena/client/headless"
	"puncharena/protocol"
	"puncharena/server"
)

// 无界面机器人：随机游走，偶尔出拳，被打倒或收到信号后退出
func main() {
	wsURL := flag.String("ws", "ws://localhost:8080/ws", "relay websocket url")
	codecName := flag.String("codec", "json", "wire codec (json|msgpack)")
	avatar := flag.String("avatar", "knight", "avatar asset name")
	name := flag.String("name", "", "display name (random when empty)")
	fps := flag.Int("fps", 60, "frames per second")
	punchRate := flag.Float64("punch-rate", 0.02, "chance to punch on each frame")
	duration := flag.Duration("duration", 0, "stop after this long (0 = until knocked out)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log, err := server.NewLogger(server.LogConfig{Level: *level, Console: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	codec, err := protocol.Lookup(*codecName)
	if err != nil {
		log.Fatalf("codec: %v", err)
	}
	if *name == "" {
		*name = fmt.Sprintf("bot-%04d", rand.Intn(10000))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, botOptions{
		url:       *wsURL,
		codec:     codec,
		avatar:    *avatar,
		name:      *name,
		fps:       *fps,
		punchRate: *punchRate,
	}, log.Named("bot")); err != nil {
		log.Fatalf("bot: %v", err)
	}
}

type botOptions struct {
	url       string
	codec     protocol.Codec
	avatar    string
	name      string
	fps       int
	punchRate float64
}

func run(ctx context.Context, opts botOptions, log *zap.SugaredLogger) error {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	nc, err := client.Dial(dialCtx, opts.url, opts.codec, log)
	cancel()
	if err != nil {
		return err
	}
	defer nc.Close()

	keys := headless.Keys{}
	over := make(chan struct{})
	cfg := client.DefaultConfig()
	cfg.Log = log
	cfg.OnGameOver = func() { close(over) }
	cfg.OnChat = func(line client.ChatLine) {
		log.Infow("chat", "from", line.Name, "text", line.Text)
	}
	s := client.NewSession(cfg, client.Deps{
		Emitter:  nc,
		Loader:   headless.NewLoader(),
		Scene:    headless.NewScene(),
		HUD:      &headless.HUD{},
		Keyboard: keys,
	})
	defer s.Close()
	nc.Start(s.Deliver)

	if err := s.Join(opts.avatar, opts.name); err != nil {
		return err
	}
	log.Infow("joined", "name", opts.name, "avatar", opts.avatar, "codec", opts.codec.Name())

	if opts.fps <= 0 {
		opts.fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(opts.fps))
	defer ticker.Stop()
	walk := newRandomWalk(keys)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Infow("stopping", "health", s.Health())
			return nil
		case <-nc.Done():
			return client.ErrClosed
		case <-over:
			log.Infow("knocked out", "name", opts.name)
			return nil
		case now := <-ticker.C:
			walk.step()
			if rand.Float64() < opts.punchRate {
				if err := s.Punch(); err != nil {
					log.Debugw("punch", "err", err)
				}
			}
			s.Frame(now.Sub(last).Seconds())
			last = now
		}
	}
}

// randomWalk 每隔一段随机帧数换一次方向
type randomWalk struct {
	keys  headless.Keys
	left  int
	order []client.Key
}

func newRandomWalk(keys headless.Keys) *randomWalk {
	return &randomWalk{
		keys:  keys,
		order: []client.Key{client.KeyForward, client.KeyBackward, client.KeyLeft, client.KeyRight},
	}
}

func (w *randomWalk) step() {
	if w.left > 0 {
		w.left--
		return
	}
	w.left = 30 + rand.Intn(90)
	for _, k := range w.order {
		w.keys[k] = rand.Intn(3) == 0
	}
}
