package server

import (
	"puncharena/combat"
	"puncharena/protocol"
)

// PlayerID 连接的不透明标识，连接时分配，断开后失效
type PlayerID string

// ConnState 连接状态：Connected → Identified → Disconnected
type ConnState int

const (
	StateConnected ConnState = iota
	StateIdentified
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Player 名册中的玩家记录。位姿由客户端上报，服务端不做校验。
type Player struct {
	ID          PlayerID
	AvatarName  string
	DisplayName string
	X           float64
	Z           float64
	RotationY   float64
	AnimState   string
	Health      combat.Health
}

func newPlayer(id PlayerID, c protocol.Creation) *Player {
	return &Player{
		ID:          id,
		AvatarName:  c.AvatarName,
		DisplayName: c.DisplayName,
		AnimState:   protocol.AnimIdle,
		Health:      combat.NewHealth(combat.MaxHealth),
	}
}

// Record 转为线上载荷
func (p *Player) Record() protocol.PlayerRecord {
	return protocol.PlayerRecord{
		ID:          string(p.ID),
		AvatarName:  p.AvatarName,
		DisplayName: p.DisplayName,
		X:           p.X,
		Z:           p.Z,
		RotationY:   p.RotationY,
		AnimState:   p.AnimState,
		Health:      p.Health.Value(),
	}
}

// peer 一个连接（无论是否已创建玩家）
type peer struct {
	id    PlayerID
	conn  Conn
	state ConnState
}
