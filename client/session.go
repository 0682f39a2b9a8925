package client

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"puncharena/combat"
	"puncharena/physics"
	"puncharena/protocol"
)

// Config 会话参数。移动与重力按固定步长（每帧一个单位）积分，
// 动画按实际帧耗时推进。
type Config struct {
	AssetRoot       string
	MoveSpeed       float64 // 每帧位移
	PlayerGravity   float64 // 每帧竖直速度增量（负值）
	MaxFallSpeed    float64
	HealthBarOffset float64 // 血条相对角色中心的高度
	// EmitOnChange 为 true 时仅在位姿或动画变化时发送 move
	EmitOnChange bool
	ChatHistory  int
	Layout       ArenaLayout
	InboxSize    int

	Clock      func() time.Time
	Log        *zap.SugaredLogger
	OnGameOver func()
	OnChat     func(ChatLine)
}

func DefaultConfig() Config {
	return Config{
		AssetRoot:       "models",
		MoveSpeed:       0.1,
		PlayerGravity:   -0.01,
		MaxFallSpeed:    0.5,
		HealthBarOffset: 1.5,
		ChatHistory:     50,
		Layout:          DefaultLayout(),
		InboxSize:       256,
	}
}

// Deps 外部协作方
type Deps struct {
	Emitter  Emitter
	Loader   AssetLoader
	Scene    Scene
	HUD      HUD
	Keyboard Keyboard
}

// ChatLine 聊天记录
type ChatLine struct {
	ID   string
	Name string
	Text string
}

var (
	ErrNotJoined = errors.New("session not joined")
	ErrGameOver  = errors.New("game over")
)

type loadResult struct {
	token uint64
	id    string
	local bool
	asset *Asset
	err   error
	path  string
}

type pendingMirror struct {
	token uint64
	rec   protocol.PlayerRecord
}

// Session 单个客户端会话。除 Deliver 与 Close 外，所有方法都必须在
// 同一个帧协程上调用；网络事件与资源加载结果排队后在下一帧开头处理。
type Session struct {
	cfg  Config
	deps Deps
	log  *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan any

	selfID       string
	joined       bool
	localPending bool
	local        *Avatar
	body         *physics.Body
	localHealth  combat.Health
	cooldown     combat.Cooldown
	gameOver     bool

	mirrors map[string]*Avatar
	order   []string // 镜像注册顺序，命中检测按此顺序
	pending map[string]*pendingMirror
	tokens  uint64

	arena    *Arena
	chat     []ChatLine
	lastMove protocol.Move
	moved    bool
}

func NewSession(cfg Config, deps Deps) *Session {
	def := DefaultConfig()
	if cfg.MoveSpeed == 0 {
		cfg.MoveSpeed = def.MoveSpeed
	}
	if cfg.ChatHistory <= 0 {
		cfg.ChatHistory = def.ChatHistory
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = def.InboxSize
	}
	if cfg.Layout.GroundSize == (mgl64.Vec3{}) {
		cfg.Layout = def.Layout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:         cfg,
		deps:        deps,
		log:         cfg.Log,
		ctx:         ctx,
		cancel:      cancel,
		inbox:       make(chan any, cfg.InboxSize),
		localHealth: combat.NewHealth(combat.MaxHealth),
		cooldown:    combat.NewCooldown(combat.HitCooldown),
		mirrors:     make(map[string]*Avatar),
		pending:     make(map[string]*pendingMirror),
		arena:       NewArena(cfg.Layout, deps.Scene),
	}
}

// Deliver 由网络读协程调用，把事件排入收件箱
func (s *Session) Deliver(msg protocol.Message) {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
	}
}

// Close 停止接收事件；进行中的加载结果会被丢弃
func (s *Session) Close() { s.cancel() }

func (s *Session) SelfID() string   { return s.selfID }
func (s *Session) GameOver() bool   { return s.gameOver }
func (s *Session) Local() *Avatar   { return s.local }
func (s *Session) Arena() *Arena    { return s.arena }
func (s *Session) Chat() []ChatLine { return append([]ChatLine(nil), s.chat...) }

// Health 本地玩家的血量
func (s *Session) Health() int { return s.localHealth.Value() }

// Mirror 按 id 查找已注册的远端镜像
func (s *Session) Mirror(id string) (*Avatar, bool) {
	m, ok := s.mirrors[id]
	return m, ok
}

// Mirrors 按注册顺序返回镜像 id
func (s *Session) Mirrors() []string { return append([]string(nil), s.order...) }

// Join 声明身份并开始加载本地角色
func (s *Session) Join(avatarName, displayName string) error {
	if s.gameOver {
		return ErrGameOver
	}
	if err := s.deps.Emitter.Emit(protocol.EvPlayerCreation, protocol.Creation{
		AvatarName:  avatarName,
		DisplayName: displayName,
	}); err != nil {
		return err
	}
	s.joined = true
	if s.local == nil && !s.localPending {
		s.localPending = true
		s.load(0, "", true, avatarName)
	}
	return nil
}

// Punch 本地出拳：立即播放并向服务端声明
func (s *Session) Punch() error {
	if s.gameOver {
		return ErrGameOver
	}
	if s.local == nil {
		return ErrNotJoined
	}
	if s.local.Anim.Punching() {
		return nil
	}
	s.local.Anim.Punch()
	return s.deps.Emitter.Emit(protocol.EvAction, protocol.Action{Type: protocol.ActionPunch})
}

// Say 发送聊天
func (s *Session) Say(text string) error {
	if !s.joined {
		return ErrNotJoined
	}
	return s.deps.Emitter.Emit(protocol.EvChatMessage, protocol.Chat{Text: text})
}

func (s *Session) assetPath(avatarName string) string {
	return path.Join(s.cfg.AssetRoot, avatarName+".glb")
}

func (s *Session) load(token uint64, id string, local bool, avatarName string) {
	p := s.assetPath(avatarName)
	go func() {
		asset, err := s.deps.Loader.Load(s.ctx, p)
		select {
		case s.inbox <- loadResult{token: token, id: id, local: local, asset: asset, err: err, path: p}:
		case <-s.ctx.Done():
		}
	}()
}

// Frame 每帧调用一次，dt 为距上一帧的秒数
func (s *Session) Frame(dt float64) {
	s.drain()
	now := s.cfg.Clock()
	if s.local != nil && !s.gameOver {
		s.stepLocal(dt, now)
	}
	for _, id := range s.order {
		s.mirrors[id].advance(dt)
	}
	s.arena.Step(1)
	s.placeHealthBars()
}

// drain 非阻塞地处理收件箱中的全部事件
func (s *Session) drain() {
	for {
		select {
		case item := <-s.inbox:
			switch v := item.(type) {
			case protocol.Message:
				s.handle(v)
			case loadResult:
				s.onLoaded(v)
			}
		default:
			return
		}
	}
}

func (s *Session) stepLocal(dt float64, now time.Time) {
	av := s.local
	moving := false
	if !av.Anim.Punching() {
		if dir := Direction(s.deps.Keyboard); dir.Len() > 0 {
			moving = true
			s.body.Position = s.body.Position.Add(dir.Mul(s.cfg.MoveSpeed))
			av.RotationY = Facing(dir)
		}
	}
	s.body.Step(1, s.arena.Ground())
	av.Place(s.body.Position, av.RotationY)

	if !av.Anim.Punching() {
		label := protocol.AnimIdle
		if moving {
			label = protocol.AnimRun
		}
		av.Anim.Transition(label)
	}
	av.advance(dt)

	s.emitMove(av.moveMessage())

	if av.Anim.Punching() && !s.cooldown.Active(now) {
		s.detectHit(now)
	}
}

func (s *Session) emitMove(m protocol.Move) {
	if s.cfg.EmitOnChange && s.moved && m == s.lastMove {
		return
	}
	s.lastMove, s.moved = m, true
	if err := s.deps.Emitter.Emit(protocol.EvMove, m); err != nil {
		s.log.Debugw("move not sent", "err", err)
	}
}

// detectHit 按镜像注册顺序找第一个与本地包围盒相交的目标，声明一次命中
func (s *Session) detectHit(now time.Time) {
	box := s.local.Bounds()
	for _, id := range s.order {
		if !box.Intersects(s.mirrors[id].Bounds()) {
			continue
		}
		if err := s.deps.Emitter.Emit(protocol.EvHit, protocol.Hit{TargetID: id}); err != nil {
			s.log.Debugw("hit not sent", "target", id, "err", err)
		}
		s.cooldown.Arm(now)
		return
	}
}

func (s *Session) placeHealthBars() {
	up := mgl64.Vec3{0, s.cfg.HealthBarOffset, 0}
	if s.local != nil {
		x, y := s.deps.Scene.Project(s.local.Position.Add(up))
		s.local.Bar.SetScreenPosition(x, y)
	}
	for _, id := range s.order {
		m := s.mirrors[id]
		x, y := s.deps.Scene.Project(m.Position.Add(up))
		m.Bar.SetScreenPosition(x, y)
	}
}
