package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"puncharena/combat"
	"puncharena/physics"
	"puncharena/protocol"
)

// Avatar 场景中的一个角色（本地玩家或远端镜像），组合渲染句柄与模拟状态
type Avatar struct {
	ID   string
	Name string

	Model  Renderable
	Mixer  Mixer
	Anim   *Animator
	Bar    HealthBar
	Health combat.Health

	Position  mgl64.Vec3
	RotationY float64
	Size      mgl64.Vec3
}

func newAvatar(id, name string, asset *Asset, hud HUD, health int) *Avatar {
	av := &Avatar{
		ID:     id,
		Name:   name,
		Model:  asset.Model,
		Mixer:  asset.Mixer,
		Anim:   NewAnimator(asset.Actions),
		Health: combat.NewHealth(combat.MaxHealth),
		Size:   asset.Size,
	}
	av.Health.Set(health)
	av.Bar = hud.NewHealthBar(av.Health.Max(), name)
	av.Bar.SetHealth(av.Health.Value())
	return av
}

// Place 更新位姿并同步到渲染句柄
func (av *Avatar) Place(pos mgl64.Vec3, rotationY float64) {
	av.Position = pos
	av.RotationY = rotationY
	av.Model.SetPosition(pos)
	av.Model.SetRotationY(rotationY)
}

func (av *Avatar) Bounds() physics.Box { return av.Model.Bounds() }

// SetHealth 写入服务端广播的血量并刷新血条
func (av *Avatar) SetHealth(n int) {
	av.Health.Set(n)
	av.Bar.SetHealth(av.Health.Value())
}

// advance 推进动画并处理出拳结束
func (av *Avatar) advance(dt float64) {
	av.Mixer.Update(dt)
	av.Anim.SettlePunch()
}

func (av *Avatar) moveMessage() protocol.Move {
	return protocol.Move{
		X:         av.Position.X(),
		Z:         av.Position.Z(),
		RotationY: av.RotationY,
		AnimState: av.Anim.Current(),
	}
}
