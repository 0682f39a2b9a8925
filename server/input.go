package server

import (
	"puncharena/combat"
	"puncharena/protocol"
)

// onEvent 解释一条入站事件。任何引用未知/未识别 id 的事件都静默丢弃，
// 不回报给发送者。
func (a *Arena) onEvent(id PlayerID, msg protocol.Message) {
	p, ok := a.peers[id]
	if !ok {
		a.drop(id, msg.Event, "unknown peer")
		return
	}
	a.metrics.IncReceived()

	if msg.Event == protocol.EvPlayerCreation {
		c, err := protocol.DecodePayload[protocol.Creation](msg)
		if err != nil {
			a.drop(id, msg.Event, err.Error())
			return
		}
		a.onCreation(p, c)
		return
	}

	rec, ok := a.roster[id]
	if !ok || p.state != StateIdentified {
		a.drop(id, msg.Event, "not identified")
		return
	}

	switch msg.Event {
	case protocol.EvMove:
		m, err := protocol.DecodePayload[protocol.Move](msg)
		if err != nil {
			a.drop(id, msg.Event, err.Error())
			return
		}
		a.onMove(rec, m)
	case protocol.EvAction:
		act, err := protocol.DecodePayload[protocol.Action](msg)
		if err != nil {
			a.drop(id, msg.Event, err.Error())
			return
		}
		if act.Type != protocol.ActionPunch {
			a.drop(id, msg.Event, "unsupported action "+act.Type)
			return
		}
		a.broadcast(protocol.EvAction, protocol.Action{ID: string(id), Type: act.Type}, "")
	case protocol.EvHit:
		h, err := protocol.DecodePayload[protocol.Hit](msg)
		if err != nil {
			a.drop(id, msg.Event, err.Error())
			return
		}
		a.onHit(rec, PlayerID(h.TargetID))
	case protocol.EvChatMessage:
		c, err := protocol.DecodePayload[protocol.Chat](msg)
		if err != nil {
			a.drop(id, msg.Event, err.Error())
			return
		}
		a.metrics.IncChat()
		a.broadcast(protocol.EvChatMessage, protocol.Chat{ID: string(id), Name: rec.DisplayName, Text: c.Text}, "")
	default:
		a.drop(id, msg.Event, "unknown event")
	}
}

// onCreation 建立（或覆盖）玩家记录：完整名册只回给创建者，新记录广播给其他连接
func (a *Arena) onCreation(p *peer, c protocol.Creation) {
	_, refresh := a.roster[p.id]
	rec := newPlayer(p.id, c)
	a.roster[p.id] = rec
	p.state = StateIdentified

	a.sendTo(p, protocol.EvExistingPlayers, a.snapshot())
	a.broadcast(protocol.EvNewRemotePlayer, rec.Record(), p.id)
	a.log.Infow("player created", "id", p.id, "avatar", c.AvatarName, "name", c.DisplayName, "refresh", refresh)
}

func (a *Arena) onMove(rec *Player, m protocol.Move) {
	rec.X, rec.Z, rec.RotationY, rec.AnimState = m.X, m.Z, m.RotationY, m.AnimState
	m.ID = string(rec.ID)
	a.broadcast(protocol.EvMove, m, rec.ID)
}

// onHit 信任客户端的命中声明：不校验攻击者、距离或冷却
func (a *Arena) onHit(attacker *Player, target PlayerID) {
	victim, ok := a.roster[target]
	if !ok {
		a.drop(attacker.ID, protocol.EvHit, "unknown target")
		return
	}
	health, died := victim.Health.Damage(combat.HitDamage)
	a.metrics.IncHit()
	a.broadcast(protocol.EvUpdateHealth, protocol.HealthUpdate{ID: string(target), Health: health}, "")
	a.log.Debugw("hit applied", "attacker", attacker.ID, "target", target, "health", health)
	if !died {
		return
	}

	a.broadcast(protocol.EvRemovePlayer, protocol.Removal{ID: string(target)}, "")
	delete(a.roster, target)
	if p, ok := a.peers[target]; ok {
		p.state = StateConnected
	}
	a.metrics.IncDeath()
	a.log.Infow("player died", "id", target, "attacker", attacker.ID)
}

func (a *Arena) drop(id PlayerID, event, reason string) {
	a.metrics.IncDropped()
	a.log.Debugw("event dropped", "id", id, "event", event, "reason", reason)
}
