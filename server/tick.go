package server

import (
	"context"
	"errors"
	"time"

	"puncharena/protocol"
)

var ErrArenaStopped = errors.New("arena stopped")

// Run 竞技场主循环：逐条处理收件箱命令，直到 ctx 结束
func (a *Arena) Run(ctx context.Context) {
	var stats <-chan time.Time
	if a.opts.StatsInterval > 0 {
		ticker := time.NewTicker(a.opts.StatsInterval)
		defer ticker.Stop()
		stats = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return
		case cmd := <-a.inbox:
			start := time.Now()
			a.handle(cmd)
			a.metrics.AddHandle(time.Since(start).Nanoseconds())
		case <-stats:
			a.log.Infow("arena stats",
				"peers", len(a.peers),
				"players", len(a.roster),
				"metrics", a.metrics.Snapshot())
		}
	}
}

// Roster 从循环外读取名册副本（管理接口使用）
func (a *Arena) Roster(ctx context.Context) (protocol.Roster, error) {
	if a.stopped() {
		return nil, ErrArenaStopped
	}
	reply := make(chan protocol.Roster, 1)
	select {
	case a.inbox <- rosterQuery{reply: reply}:
	case <-a.done:
		return nil, ErrArenaStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-a.done:
		return nil, ErrArenaStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Arena) shutdown() {
	close(a.done)
	for id, p := range a.peers {
		p.state = StateDisconnected
		p.conn.Close()
		delete(a.peers, id)
	}
	a.log.Infow("arena stopped", "players", len(a.roster))
}
