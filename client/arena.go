package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"puncharena/physics"
)

// PropSpec 一个道具的初始位置与尺寸
type PropSpec struct {
	Position mgl64.Vec3
	Size     mgl64.Vec3
}

// ArenaLayout 竞技场布局：一块地面和若干会下落弹跳的道具
type ArenaLayout struct {
	GroundCenter mgl64.Vec3
	GroundSize   mgl64.Vec3
	PropGravity  float64
	Props        []PropSpec
}

func DefaultLayout() ArenaLayout {
	return ArenaLayout{
		GroundCenter: mgl64.Vec3{0, -2, 0},
		GroundSize:   mgl64.Vec3{30, 0.5, 30},
		PropGravity:  -0.002,
		Props: []PropSpec{
			{Position: mgl64.Vec3{-6, 4, -6}, Size: mgl64.Vec3{1, 1, 1}},
			{Position: mgl64.Vec3{6, 6, -4}, Size: mgl64.Vec3{1.5, 1.5, 1.5}},
			{Position: mgl64.Vec3{0, 8, 7}, Size: mgl64.Vec3{2, 1, 2}},
		},
	}
}

// Prop 道具：弹跳策略的刚体 + 渲染句柄
type Prop struct {
	Body *physics.Body
	Mesh Renderable
}

// Arena 客户端本地的场地，仅用于表现，不参与同步
type Arena struct {
	ground physics.Box
	mesh   Renderable
	props  []*Prop
}

func NewArena(layout ArenaLayout, scene Scene) *Arena {
	a := &Arena{ground: physics.BoxAt(layout.GroundCenter, layout.GroundSize)}
	a.mesh = scene.NewBox(layout.GroundSize)
	a.mesh.SetPosition(layout.GroundCenter)
	scene.Add(a.mesh)
	for _, spec := range layout.Props {
		p := &Prop{
			Body: physics.NewBody(spec.Position, spec.Size, layout.PropGravity, physics.Bounce),
			Mesh: scene.NewBox(spec.Size),
		}
		p.Mesh.SetPosition(spec.Position)
		scene.Add(p.Mesh)
		a.props = append(a.props, p)
	}
	return a
}

func (a *Arena) Ground() physics.Box { return a.ground }
func (a *Arena) Props() []*Prop      { return a.props }

// RestHeight 尺寸为 size 的物体站在地面上时的中心高度
func (a *Arena) RestHeight(size mgl64.Vec3) float64 {
	return a.ground.Max.Y() + size.Y()/2
}

// Step 推进所有道具一步
func (a *Arena) Step(dt float64) {
	for _, p := range a.props {
		p.Body.Step(dt, a.ground)
		p.Mesh.SetPosition(p.Body.Position)
	}
}
