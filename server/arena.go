package server

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"puncharena/protocol"
)

// Conn 竞技场向连接写数据的最小接口。
// 只会在竞技场协程内被调用。
type Conn interface {
	Codec() protocol.Codec
	// Enqueue 非阻塞入队，队列满时丢弃并返回 false
	Enqueue(frame []byte) bool
	Close()
}

// Arena 唯一的竞技场：连接表与名册只在 Run 协程内读写，
// 每条命令处理完再处理下一条，因此无需加锁。
type Arena struct {
	peers  map[PlayerID]*peer
	roster map[PlayerID]*Player
	inbox  chan any
	done   chan struct{}

	log     *zap.SugaredLogger
	metrics *Metrics
	opts    ArenaOptions
}

// ArenaOptions 竞技场运行参数
type ArenaOptions struct {
	InboxSize     int
	StatsInterval time.Duration
}

// NewArena 创建竞技场，调用方负责 go arena.Run(ctx)
func NewArena(opts ArenaOptions, log *zap.SugaredLogger) *Arena {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Arena{
		peers:   make(map[PlayerID]*peer),
		roster:  make(map[PlayerID]*Player),
		inbox:   make(chan any, opts.InboxSize),
		done:    make(chan struct{}),
		log:     log,
		metrics: &Metrics{},
		opts:    opts,
	}
}

func (a *Arena) Metrics() *Metrics { return a.metrics }

type joinCmd struct {
	id   PlayerID
	conn Conn
}

type eventCmd struct {
	id  PlayerID
	msg protocol.Message
}

type leaveCmd struct {
	id PlayerID
}

type rosterQuery struct {
	reply chan protocol.Roster
}

// Join 分配 id 并登记连接（此时尚未进入名册）。
// 竞技场已停止时返回 false。
func (a *Arena) Join(conn Conn) (PlayerID, bool) {
	if a.stopped() {
		return "", false
	}
	id := PlayerID(uuid.NewString())
	select {
	case a.inbox <- joinCmd{id: id, conn: conn}:
		return id, true
	case <-a.done:
		return "", false
	}
}

// Submit 入站事件，不阻塞读协程：收件箱满时丢弃
func (a *Arena) Submit(id PlayerID, msg protocol.Message) {
	select {
	case a.inbox <- eventCmd{id: id, msg: msg}:
	default:
		a.metrics.IncInboxFull()
	}
}

// Leave 断开连接。必须送达，所以阻塞写入（竞技场停止后直接返回）。
func (a *Arena) Leave(id PlayerID) {
	select {
	case a.inbox <- leaveCmd{id: id}:
	case <-a.done:
	}
}

func (a *Arena) stopped() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

func (a *Arena) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		a.onJoin(c.id, c.conn)
	case eventCmd:
		a.onEvent(c.id, c.msg)
	case leaveCmd:
		a.onLeave(c.id)
	case rosterQuery:
		c.reply <- a.snapshot()
	}
}

func (a *Arena) onJoin(id PlayerID, conn Conn) {
	a.peers[id] = &peer{id: id, conn: conn, state: StateConnected}
	a.metrics.IncConnected()
	a.sendTo(a.peers[id], protocol.EvSession, protocol.Session{ID: string(id)})
	a.log.Infow("peer connected", "id", id, "codec", conn.Codec().Name(), "peers", len(a.peers))
}

func (a *Arena) onLeave(id PlayerID) {
	p, ok := a.peers[id]
	if !ok {
		return
	}
	p.state = StateDisconnected
	delete(a.peers, id)
	p.conn.Close()
	a.metrics.IncDisconnected()

	if _, ok := a.roster[id]; ok {
		delete(a.roster, id)
		a.broadcast(protocol.EvRemovePlayer, protocol.Removal{ID: string(id)}, "")
	}
	a.log.Infow("peer disconnected", "id", id, "peers", len(a.peers), "players", len(a.roster))
}

// snapshot 当前名册副本
func (a *Arena) snapshot() protocol.Roster {
	out := make(protocol.Roster, len(a.roster))
	for id, p := range a.roster {
		out[string(id)] = p.Record()
	}
	return out
}

func (a *Arena) sendTo(p *peer, event string, payload any) {
	b, err := p.conn.Codec().Encode(event, payload)
	if err != nil {
		a.log.Errorw("encode failed", "event", event, "err", err)
		return
	}
	a.enqueue(p, b)
}

// broadcast 发给所有连接，except 非空时排除该连接。
// 同一编解码器的帧只编码一次。
func (a *Arena) broadcast(event string, payload any, except PlayerID) {
	frames := make(map[string][]byte, 2)
	for id, p := range a.peers {
		if id == except {
			continue
		}
		codec := p.conn.Codec()
		b, ok := frames[codec.Name()]
		if !ok {
			var err error
			b, err = codec.Encode(event, payload)
			if err != nil {
				a.log.Errorw("encode failed", "event", event, "codec", codec.Name(), "err", err)
				return
			}
			frames[codec.Name()] = b
		}
		a.enqueue(p, b)
	}
}

func (a *Arena) enqueue(p *peer, b []byte) {
	if p.conn.Enqueue(b) {
		a.metrics.IncSent()
	} else {
		a.metrics.IncSendDropped()
	}
}
