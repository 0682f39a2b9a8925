package headless

import "puncharena/client"

// Bar 记录最近一次写入的血量与屏幕位置
type Bar struct {
	Label     string
	Max       int
	Health    int
	X, Y      float64
	Moves     int
	Destroyed bool
}

func (b *Bar) SetHealth(n int) { b.Health = n }
func (b *Bar) SetScreenPosition(x, y float64) {
	b.X, b.Y = x, y
	b.Moves++
}
func (b *Bar) Destroy() { b.Destroyed = true }

// HUD 保存创建过的全部血条
type HUD struct {
	Bars []*Bar
}

func (h *HUD) NewHealthBar(max int, label string) client.HealthBar {
	b := &Bar{Label: label, Max: max, Health: max}
	h.Bars = append(h.Bars, b)
	return b
}

// Keys 可编程的键盘
type Keys map[client.Key]bool

func (k Keys) Held(key client.Key) bool { return k[key] }
