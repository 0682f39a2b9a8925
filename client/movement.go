package client

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Direction 由四个方向键合成的水平单位方向（前 = -Z）。对向键互相抵消。
func Direction(k Keyboard) mgl64.Vec3 {
	var d mgl64.Vec3
	if k.Held(KeyForward) {
		d[2]--
	}
	if k.Held(KeyBackward) {
		d[2]++
	}
	if k.Held(KeyLeft) {
		d[0]--
	}
	if k.Held(KeyRight) {
		d[0]++
	}
	if d.Len() == 0 {
		return d
	}
	return d.Normalize()
}

// Facing 朝向移动方向的 Y 轴旋转
func Facing(d mgl64.Vec3) float64 {
	return math.Atan2(d.X(), d.Z())
}
