package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Policy 落地时的静止策略
type Policy int

const (
	// Snap 直接贴地，竖直速度清零
	Snap Policy = iota
	// Bounce 竖直速度反向并按恢复系数衰减，速度足够小时退化为 Snap
	Bounce
)

func (p Policy) String() string {
	switch p {
	case Snap:
		return "snap"
	case Bounce:
		return "bounce"
	default:
		return "unknown"
	}
}

const (
	DefaultRestitution   = 0.5
	DefaultRestThreshold = 0.01
)

// Body 受重力影响的刚体。Position 为包围盒中心。
type Body struct {
	Position mgl64.Vec3
	Size     mgl64.Vec3
	Velocity mgl64.Vec3

	Gravity      float64 // 负值，单位：每步速度增量
	MaxFallSpeed float64 // 0 表示不限制
	Policy       Policy
	Restitution  float64
	// 反弹后竖直速度低于该阈值则直接静止
	RestThreshold float64

	Grounded bool
}

// NewBody 使用默认恢复系数与静止阈值
func NewBody(position, size mgl64.Vec3, gravity float64, policy Policy) *Body {
	return &Body{
		Position:      position,
		Size:          size,
		Gravity:       gravity,
		Policy:        policy,
		Restitution:   DefaultRestitution,
		RestThreshold: DefaultRestThreshold,
	}
}

// Bounds 当前包围盒
func (b *Body) Bounds() Box {
	return BoxAt(b.Position, b.Size)
}

// Step 推进一步：积分重力，判断与地面的接触，按策略落地，最后位移。
// dt 为步长单位；固定步长调用方传 1。
func (b *Body) Step(dt float64, ground Box) {
	vy := b.Velocity.Y() + b.Gravity*dt
	if b.MaxFallSpeed > 0 && vy < -b.MaxFallSpeed {
		vy = -b.MaxFallSpeed
	}
	b.Velocity[1] = vy

	if SweptOverlap(b.Bounds(), vy*dt, ground) && vy <= 0 {
		b.land(ground)
	} else {
		b.Grounded = false
		b.Position[1] += vy * dt
	}
	b.Position[0] += b.Velocity.X() * dt
	b.Position[2] += b.Velocity.Z() * dt
}

func (b *Body) land(ground Box) {
	rest := ground.Max.Y() + b.Size.Y()/2
	if b.Policy == Bounce {
		bounced := -b.Velocity.Y() * b.Restitution
		if math.Abs(bounced) >= b.RestThreshold {
			b.Velocity[1] = bounced
			b.Grounded = false
			return
		}
	}
	b.Position[1] = rest
	b.Velocity[1] = 0
	b.Grounded = true
}
