package client

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"puncharena/physics"
)

// 以下接口是会话与外部协作方（渲染、动画混合、资源加载、HUD、输入、网络）
// 之间的全部边界。会话只通过它们调用外部能力。

// Renderable 场景中的可渲染实体。实体持有它，而不是继承它。
type Renderable interface {
	SetPosition(p mgl64.Vec3)
	SetRotationY(r float64)
	// Bounds 世界坐标下的包围盒
	Bounds() physics.Box
}

// Scene 场景图
type Scene interface {
	Add(r Renderable)
	Remove(r Renderable)
	// Project 世界坐标投影到屏幕坐标
	Project(world mgl64.Vec3) (x, y float64)
	// NewBox 创建一个盒状网格（地面、道具）
	NewBox(size mgl64.Vec3) Renderable
}

// AnimationAction 一个动画片段的播放控制
type AnimationAction interface {
	Play()
	Reset()
	FadeIn(seconds float64)
	FadeOut(seconds float64)
	// Time 当前播放进度，Duration 片段时长（秒）
	Time() float64
	Duration() float64
}

// Mixer 动画混合器，按帧耗时推进
type Mixer interface {
	Update(dt float64)
}

// Asset 加载完成的角色：模型、混合器与按标签索引的动画
type Asset struct {
	Model   Renderable
	Mixer   Mixer
	Actions map[string]AnimationAction
	Size    mgl64.Vec3
}

// AssetLoader 异步加载角色资源；失败必须返回错误
type AssetLoader interface {
	Load(ctx context.Context, path string) (*Asset, error)
}

// HealthBar 屏幕上的血条
type HealthBar interface {
	SetHealth(n int)
	SetScreenPosition(x, y float64)
	Destroy()
}

// HUD 血条工厂
type HUD interface {
	NewHealthBar(max int, label string) HealthBar
}

// Key 四个方向键
type Key int

const (
	KeyForward Key = iota
	KeyBackward
	KeyLeft
	KeyRight
)

// Keyboard 当前按键状态
type Keyboard interface {
	Held(k Key) bool
}

// Emitter 向服务端发送事件（即发即弃）
type Emitter interface {
	Emit(event string, payload any) error
}
