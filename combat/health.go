package combat

import "time"

const (
	// MaxHealth 新建玩家的满血值
	MaxHealth = 100
	// HitDamage 每次命中扣除的固定血量
	HitDamage = 20
	// HitCooldown 本地宣告命中后的冷却窗口
	HitCooldown = 1200 * time.Millisecond
)

// Health 生命值状态机：取值始终落在 [0, max]
type Health struct {
	cur int
	max int
}

// NewHealth 返回满血的生命值
func NewHealth(limit int) Health {
	if limit <= 0 {
		limit = MaxHealth
	}
	return Health{cur: limit, max: limit}
}

func (h Health) Value() int { return h.cur }
func (h Health) Max() int   { return h.max }
func (h Health) Dead() bool { return h.cur <= 0 }

// Damage 扣血并裁剪到 0。died 只在本次扣血首次归零时为 true，
// 已死亡的实体再受击不会重复报告死亡。
func (h *Health) Damage(n int) (remaining int, died bool) {
	if h.cur <= 0 {
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	h.cur -= n
	if h.cur <= 0 {
		h.cur = 0
		return 0, true
	}
	return h.cur, false
}

// Set 直接写入镜像值（客户端用服务端广播覆盖本地显示）
func (h *Health) Set(n int) {
	switch {
	case n < 0:
		n = 0
	case n > h.max:
		n = h.max
	}
	h.cur = n
}
