package headless

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"puncharena/client"
	"puncharena/protocol"
)

// Clip 片段定义
type Clip struct {
	Duration float64
	Loop     bool
}

// DefaultClips Idle/Run 循环，Punch 播放一次（0.5 秒）
func DefaultClips() map[string]Clip {
	return map[string]Clip{
		protocol.AnimIdle:  {Duration: 2, Loop: true},
		protocol.AnimRun:   {Duration: 0.8, Loop: true},
		protocol.AnimPunch: {Duration: 0.5},
	}
}

// Action 记录淡入淡出次数的动画片段
type Action struct {
	Name    string
	Clip    Clip
	Playing bool
	Weight  float64

	FadeIns  int
	FadeOuts int
	Resets   int

	t float64
}

func (a *Action) Play()                   { a.Playing = true }
func (a *Action) Reset()                  { a.t = 0; a.Resets++ }
func (a *Action) FadeIn(seconds float64)  { a.Weight = 1; a.FadeIns++ }
func (a *Action) FadeOut(seconds float64) { a.Weight = 0; a.FadeOuts++ }
func (a *Action) Time() float64           { return a.t }
func (a *Action) Duration() float64       { return a.Clip.Duration }

func (a *Action) advance(dt float64) {
	if !a.Playing {
		return
	}
	a.t += dt
	if a.t < a.Clip.Duration {
		return
	}
	if a.Clip.Loop && a.Clip.Duration > 0 {
		for a.t >= a.Clip.Duration {
			a.t -= a.Clip.Duration
		}
		return
	}
	// 单次片段停在最后一帧
	a.t = a.Clip.Duration
}

// Mixer 推进所有片段
type Mixer struct {
	Actions map[string]*Action
	Elapsed float64
}

func (m *Mixer) Update(dt float64) {
	m.Elapsed += dt
	for _, a := range m.Actions {
		a.advance(dt)
	}
}

// Loader 按路径生成角色资源。Fail 中的路径返回错误，Gate 非空时等待放行。
type Loader struct {
	Clips map[string]Clip
	Size  mgl64.Vec3
	Fail  map[string]error
	Gate  <-chan struct{}

	loads atomic.Int64
}

func NewLoader() *Loader {
	return &Loader{Clips: DefaultClips(), Size: mgl64.Vec3{1, 2, 1}}
}

// Loads 已发起的加载次数
func (l *Loader) Loads() int { return int(l.loads.Load()) }

func (l *Loader) Load(ctx context.Context, path string) (*client.Asset, error) {
	l.loads.Add(1)
	if l.Gate != nil {
		select {
		case <-l.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := l.Fail[path]; ok {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	mixer := &Mixer{Actions: make(map[string]*Action, len(l.Clips))}
	actions := make(map[string]client.AnimationAction, len(l.Clips))
	for name, clip := range l.Clips {
		a := &Action{Name: name, Clip: clip}
		mixer.Actions[name] = a
		actions[name] = a
	}
	return &client.Asset{
		Model:   &Model{Size: l.Size},
		Mixer:   mixer,
		Actions: actions,
		Size:    l.Size,
	}, nil
}
