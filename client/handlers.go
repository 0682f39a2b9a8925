package client

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"puncharena/physics"
	"puncharena/protocol"
)

// handle 处理一条服务端事件。未知 id 与解码失败一律静默丢弃。
func (s *Session) handle(msg protocol.Message) {
	var err error
	switch msg.Event {
	case protocol.EvSession:
		var v protocol.Session
		if err = msg.Decode(&v); err == nil {
			s.selfID = v.ID
		}
	case protocol.EvExistingPlayers:
		var roster protocol.Roster
		if err = msg.Decode(&roster); err == nil {
			ids := make([]string, 0, len(roster))
			for id := range roster {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				rec := roster[id]
				rec.ID = id
				s.spawnMirror(rec)
			}
		}
	case protocol.EvNewRemotePlayer:
		var rec protocol.PlayerRecord
		if err = msg.Decode(&rec); err == nil {
			s.spawnMirror(rec)
		}
	case protocol.EvMove:
		var m protocol.Move
		if err = msg.Decode(&m); err == nil {
			s.onMove(m)
		}
	case protocol.EvUpdateHealth:
		var h protocol.HealthUpdate
		if err = msg.Decode(&h); err == nil {
			s.onHealth(h)
		}
	case protocol.EvRemovePlayer:
		var r protocol.Removal
		if err = msg.Decode(&r); err == nil {
			if r.ID == s.selfID {
				s.endGame()
			} else {
				s.removeMirror(r.ID)
			}
		}
	case protocol.EvAction:
		var a protocol.Action
		if err = msg.Decode(&a); err == nil && a.Type == protocol.ActionPunch {
			s.onPunch(a.ID)
		}
	case protocol.EvChatMessage:
		var c protocol.Chat
		if err = msg.Decode(&c); err == nil {
			s.onChat(ChatLine{ID: c.ID, Name: c.Name, Text: c.Text})
		}
	default:
		s.log.Debugw("unknown event", "event", msg.Event)
		return
	}
	if err != nil {
		s.log.Debugw("event dropped", "event", msg.Event, "err", err)
	}
}

// spawnMirror 为远端玩家开始加载镜像；永远不为自己建镜像
func (s *Session) spawnMirror(rec protocol.PlayerRecord) {
	if rec.ID == "" || rec.ID == s.selfID {
		return
	}
	if m, ok := s.mirrors[rec.ID]; ok {
		// 对方重新创建：刷新位姿与血量
		m.Place(s.mirrorPosition(m.Size, rec.X, rec.Z), rec.RotationY)
		m.SetHealth(rec.Health)
		return
	}
	if p, ok := s.pending[rec.ID]; ok {
		p.rec = rec
		return
	}
	s.tokens++
	s.pending[rec.ID] = &pendingMirror{token: s.tokens, rec: rec}
	s.load(s.tokens, rec.ID, false, rec.AvatarName)
}

func (s *Session) onLoaded(res loadResult) {
	if res.err != nil {
		// 加载失败：记录并保持实体缺席
		s.log.Errorw("asset load failed", "path", res.path, "id", res.id, "local", res.local, "err", res.err)
		if res.local {
			s.localPending = false
		} else if p, ok := s.pending[res.id]; ok && p.token == res.token {
			delete(s.pending, res.id)
		}
		return
	}
	if res.local {
		s.localPending = false
		if s.local != nil || s.gameOver {
			return
		}
		s.registerLocal(res.asset)
		return
	}

	p, ok := s.pending[res.id]
	if !ok || p.token != res.token {
		// 加载期间已被移除
		return
	}
	delete(s.pending, res.id)
	av := newAvatar(res.id, p.rec.DisplayName, res.asset, s.deps.HUD, p.rec.Health)
	av.Place(s.mirrorPosition(av.Size, p.rec.X, p.rec.Z), p.rec.RotationY)
	av.Anim.Transition(p.rec.AnimState)
	s.deps.Scene.Add(av.Model)
	s.mirrors[res.id] = av
	s.order = append(s.order, res.id)
	s.log.Debugw("mirror registered", "id", res.id, "name", av.Name)
}

func (s *Session) registerLocal(asset *Asset) {
	av := newAvatar(s.selfID, "", asset, s.deps.HUD, s.localHealth.Value())
	start := mgl64.Vec3{0, s.arena.RestHeight(av.Size), 0}
	s.body = physics.NewBody(start, av.Size, s.cfg.PlayerGravity, physics.Snap)
	s.body.MaxFallSpeed = s.cfg.MaxFallSpeed
	av.Place(start, 0)
	s.deps.Scene.Add(av.Model)
	s.local = av
}

func (s *Session) mirrorPosition(size mgl64.Vec3, x, z float64) mgl64.Vec3 {
	return mgl64.Vec3{x, s.arena.RestHeight(size), z}
}

func (s *Session) onMove(m protocol.Move) {
	if p, ok := s.pending[m.ID]; ok {
		p.rec.X, p.rec.Z, p.rec.RotationY, p.rec.AnimState = m.X, m.Z, m.RotationY, m.AnimState
		return
	}
	av, ok := s.mirrors[m.ID]
	if !ok {
		return
	}
	av.Place(s.mirrorPosition(av.Size, m.X, m.Z), m.RotationY)
	// 远端声明的动画不打断本地正在播放的出拳
	if !av.Anim.Punching() {
		av.Anim.Transition(m.AnimState)
	}
}

func (s *Session) onHealth(h protocol.HealthUpdate) {
	if h.ID == s.selfID {
		s.localHealth.Set(h.Health)
		if s.local != nil {
			s.local.SetHealth(h.Health)
		}
		if s.localHealth.Dead() {
			s.endGame()
		}
		return
	}
	if p, ok := s.pending[h.ID]; ok {
		p.rec.Health = h.Health
		if h.Health <= 0 {
			delete(s.pending, h.ID)
		}
		return
	}
	av, ok := s.mirrors[h.ID]
	if !ok {
		return
	}
	av.SetHealth(h.Health)
	if av.Health.Dead() {
		s.removeMirror(h.ID)
	}
}

func (s *Session) onPunch(id string) {
	if id == s.selfID {
		if s.local != nil && !s.gameOver {
			s.local.Anim.Punch()
		}
		return
	}
	if av, ok := s.mirrors[id]; ok {
		av.Anim.Punch()
	}
}

func (s *Session) onChat(line ChatLine) {
	s.chat = append(s.chat, line)
	if over := len(s.chat) - s.cfg.ChatHistory; over > 0 {
		s.chat = append(s.chat[:0], s.chat[over:]...)
	}
	if s.cfg.OnChat != nil {
		s.cfg.OnChat(line)
	}
}

func (s *Session) removeMirror(id string) {
	delete(s.pending, id)
	av, ok := s.mirrors[id]
	if !ok {
		return
	}
	s.deps.Scene.Remove(av.Model)
	av.Bar.Destroy()
	delete(s.mirrors, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// endGame 本地玩家死亡：移出场景、销毁血条，只触发一次回调
func (s *Session) endGame() {
	if s.gameOver {
		return
	}
	s.gameOver = true
	s.localHealth.Set(0)
	if s.local != nil {
		s.deps.Scene.Remove(s.local.Model)
		s.local.Bar.Destroy()
		s.local = nil
	}
	s.log.Infow("game over", "id", s.selfID)
	if s.cfg.OnGameOver != nil {
		s.cfg.OnGameOver()
	}
}
