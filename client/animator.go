package client

import "puncharena/protocol"

// CrossfadeSeconds 标签切换时的淡入淡出时长
const CrossfadeSeconds = 0.2

// Animator 动画状态：当前标签与出拳窗口
type Animator struct {
	actions  map[string]AnimationAction
	current  string
	punching bool
}

// NewAnimator 默认播放 Idle
func NewAnimator(actions map[string]AnimationAction) *Animator {
	a := &Animator{actions: actions, current: protocol.AnimIdle}
	if idle, ok := actions[protocol.AnimIdle]; ok {
		idle.Play()
	}
	return a
}

func (a *Animator) Current() string { return a.current }
func (a *Animator) Punching() bool  { return a.punching }

// Transition 切换到 label。与当前标签相同或片段不存在时什么也不做。
func (a *Animator) Transition(label string) bool {
	if label == a.current {
		return false
	}
	next, ok := a.actions[label]
	if !ok {
		return false
	}
	if prev, ok := a.actions[a.current]; ok {
		prev.FadeOut(CrossfadeSeconds)
	}
	next.Reset()
	next.FadeIn(CrossfadeSeconds)
	next.Play()
	a.current = label
	return true
}

// Punch 进入出拳状态；已在出拳时从头重播
func (a *Animator) Punch() {
	act, ok := a.actions[protocol.AnimPunch]
	if !ok {
		return
	}
	a.punching = true
	if a.current == protocol.AnimPunch {
		act.Reset()
		act.Play()
		return
	}
	a.Transition(protocol.AnimPunch)
}

// SettlePunch 出拳片段播完后回到 Idle，返回是否发生了结束
func (a *Animator) SettlePunch() bool {
	if !a.punching {
		return false
	}
	act, ok := a.actions[protocol.AnimPunch]
	if ok && act.Time() < act.Duration() {
		return false
	}
	a.punching = false
	a.Transition(protocol.AnimIdle)
	return true
}
