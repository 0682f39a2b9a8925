package protocol

// 事件名（客户端与服务端共用）
const (
	EvSession         = "session"           // S→C 仅发给新连接：告知自身 id
	EvPlayerCreation  = "player-creation"   // C→S 身份声明（幂等）
	EvExistingPlayers = "existing-players"  // S→C 仅发给创建者：完整名册
	EvNewRemotePlayer = "new-remote-player" // S→C 广播（排除创建者）
	EvMove            = "move"              // C→S；S→C 广播（排除发送者）
	EvAction          = "action"            // C→S；S→C 广播（全部）
	EvHit             = "hit"               // C→S
	EvUpdateHealth    = "update-health"     // S→C 广播（全部）
	EvRemovePlayer    = "remove-player"     // S→C 广播（全部）
	EvChatMessage     = "chat-message"      // C→S；S→C 广播（全部）
)

// ActionPunch 目前唯一被转发的动作类型
const ActionPunch = "punch"

// 动画标签
const (
	AnimIdle  = "Idle"
	AnimRun   = "Run"
	AnimPunch = "Punch"
)

// PlayerRecord 服务端名册中的一条记录，也是 existing-players/new-remote-player 的载荷
type PlayerRecord struct {
	ID          string  `json:"id" msgpack:"id"`
	AvatarName  string  `json:"avatarName" msgpack:"avatarName"`
	DisplayName string  `json:"displayName" msgpack:"displayName"`
	X           float64 `json:"x" msgpack:"x"`
	Z           float64 `json:"z" msgpack:"z"`
	RotationY   float64 `json:"rotationY" msgpack:"rotationY"`
	AnimState   string  `json:"animState" msgpack:"animState"`
	Health      int     `json:"health" msgpack:"health"`
}

// Roster existing-players 载荷：id → 记录
type Roster map[string]PlayerRecord

type Session struct {
	ID string `json:"id" msgpack:"id"`
}

type Creation struct {
	AvatarName  string `json:"avatarName" msgpack:"avatarName"`
	DisplayName string `json:"displayName" msgpack:"displayName"`
}

// Move 上行时 ID 为空，下行由服务端填入发送者 id
type Move struct {
	ID        string  `json:"id,omitempty" msgpack:"id,omitempty"`
	X         float64 `json:"x" msgpack:"x"`
	Z         float64 `json:"z" msgpack:"z"`
	RotationY float64 `json:"rotationY" msgpack:"rotationY"`
	AnimState string  `json:"animState" msgpack:"animState"`
}

type Action struct {
	ID   string `json:"id,omitempty" msgpack:"id,omitempty"`
	Type string `json:"type" msgpack:"type"`
}

type Hit struct {
	TargetID string `json:"targetId" msgpack:"targetId"`
}

type HealthUpdate struct {
	ID     string `json:"id" msgpack:"id"`
	Health int    `json:"health" msgpack:"health"`
}

type Removal struct {
	ID string `json:"id" msgpack:"id"`
}

// Chat 上行只需要 Text，名字由服务端按发送者补全
type Chat struct {
	ID   string `json:"id,omitempty" msgpack:"id,omitempty"`
	Name string `json:"name,omitempty" msgpack:"name,omitempty"`
	Text string `json:"text" msgpack:"text"`
}

// Payloads 事件名到载荷零值的映射，供 schema 生成使用
func Payloads() map[string]any {
	return map[string]any{
		EvSession:         Session{},
		EvPlayerCreation:  Creation{},
		EvExistingPlayers: Roster{},
		EvNewRemotePlayer: PlayerRecord{},
		EvMove:            Move{},
		EvAction:          Action{},
		EvHit:             Hit{},
		EvUpdateHealth:    HealthUpdate{},
		EvRemovePlayer:    Removal{},
		EvChatMessage:     Chat{},
	}
}
