package combat

import "time"

// Cooldown 一次性冷却窗口，一旦 Arm 不可取消，到期自动失效
type Cooldown struct {
	window time.Duration
	until  time.Time
}

func NewCooldown(window time.Duration) Cooldown {
	return Cooldown{window: window}
}

// Arm 从 now 开始计时。窗口内重复 Arm 不会延长到期时间。
func (c *Cooldown) Arm(now time.Time) bool {
	if c.Active(now) {
		return false
	}
	c.until = now.Add(c.window)
	return true
}

// Active 冷却是否仍在生效
func (c Cooldown) Active(now time.Time) bool {
	return now.Before(c.until)
}

// Remaining 剩余冷却时间，未生效时为 0
func (c Cooldown) Remaining(now time.Time) time.Duration {
	if !c.Active(now) {
		return 0
	}
	return c.until.Sub(now)
}
