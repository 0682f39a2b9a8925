package physics

import "github.com/go-gl/mathgl/mgl64"

// Box 轴对齐包围盒
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// BoxAt 以中心点和尺寸构造包围盒
func BoxAt(center, size mgl64.Vec3) Box {
	half := size.Mul(0.5)
	return Box{Min: center.Sub(half), Max: center.Add(half)}
}

func (b Box) Center() mgl64.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }
func (b Box) Size() mgl64.Vec3   { return b.Max.Sub(b.Min) }

// Translate 平移整个盒子
func (b Box) Translate(d mgl64.Vec3) Box {
	return Box{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Intersects 三轴独立重叠（边界接触算相交）
func (b Box) Intersects(o Box) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || b.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// SweptOverlap 预判式碰撞：水平两轴按当前位置判断，
// 竖直轴把 a 本步的竖直位移 vy 计入底面。
func SweptOverlap(a Box, vy float64, b Box) bool {
	x := a.Max.X() >= b.Min.X() && a.Min.X() <= b.Max.X()
	z := a.Max.Z() >= b.Min.Z() && a.Min.Z() <= b.Max.Z()
	y := a.Min.Y()+vy <= b.Max.Y() && a.Max.Y() >= b.Min.Y()
	return x && y && z
}
