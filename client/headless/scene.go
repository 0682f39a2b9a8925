// Package headless 提供不依赖图形环境的协作方实现：
// 机器人客户端与测试直接使用。
package headless

import (
	"github.com/go-gl/mathgl/mgl64"

	"puncharena/client"
	"puncharena/physics"
)

// Model 只记录位姿与尺寸的渲染句柄
type Model struct {
	Position  mgl64.Vec3
	RotationY float64
	Size      mgl64.Vec3
}

func (m *Model) SetPosition(p mgl64.Vec3) { m.Position = p }
func (m *Model) SetRotationY(r float64)   { m.RotationY = r }
func (m *Model) Bounds() physics.Box      { return physics.BoxAt(m.Position, m.Size) }

// Scene 记录场景中的实体；投影为简单的正交映射
type Scene struct {
	Width, Height float64
	Scale         float64

	entities map[client.Renderable]bool
}

func NewScene() *Scene {
	return &Scene{Width: 800, Height: 600, Scale: 20, entities: make(map[client.Renderable]bool)}
}

func (s *Scene) Add(r client.Renderable)    { s.entities[r] = true }
func (s *Scene) Remove(r client.Renderable) { delete(s.entities, r) }

func (s *Scene) Contains(r client.Renderable) bool { return s.entities[r] }
func (s *Scene) Len() int                          { return len(s.entities) }

func (s *Scene) Project(world mgl64.Vec3) (float64, float64) {
	return s.Width/2 + world.X()*s.Scale, s.Height/2 - world.Y()*s.Scale
}

func (s *Scene) NewBox(size mgl64.Vec3) client.Renderable {
	return &Model{Size: size}
}
