package anim

import (
	"log"

	"github.com/decker502/lovetap/pkg/clock"
)

// ScriptState 脚本状态
type ScriptState int

const (
	ScriptIdle ScriptState = iota
	ScriptRunning
	ScriptFinished
	ScriptStopped
)

// String 返回状态名称（用于日志）
func (s ScriptState) String() string {
	switch s {
	case ScriptIdle:
		return "Idle"
	case ScriptRunning:
		return "Running"
	case ScriptFinished:
		return "Finished"
	case ScriptStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Phase 脚本中的一个命名阶段
type Phase struct {
	Name string
	Node Node
}

// Script 按顺序执行的阶段脚本
//
// 状态机: Idle → Running(phaseIndex) → Finished，或在任意运行时刻 Stop → Stopped。
// 脚本只能启动一次；完成回调只会触发一次，且在所有嵌套分支都结束之后。
type Script struct {
	name       string
	phases     []Phase
	state      ScriptState
	phaseIndex int
	onComplete func()
}

// NewScript 创建脚本
func NewScript(name string, phases ...Phase) *Script {
	return &Script{name: name, phases: phases, phaseIndex: -1}
}

// Start 启动脚本
//
// 参数:
//   - ts: 定时器来源（通常是模式的 clock.Group）
//   - onComplete: 全部阶段结束后调用一次，可为 nil
//
// 返回:
//   - bool: 脚本不处于 Idle 状态时返回 false 且不做任何事
func (s *Script) Start(ts clock.TimerSource, onComplete func()) bool {
	if s.state != ScriptIdle {
		log.Printf("[Script] %s: ignoring Start in state %s", s.name, s.state)
		return false
	}
	s.state = ScriptRunning
	s.onComplete = onComplete
	s.runPhase(0, ts)
	return true
}

func (s *Script) runPhase(i int, ts clock.TimerSource) {
	if s.state != ScriptRunning {
		return
	}
	if i >= len(s.phases) {
		s.state = ScriptFinished
		s.phaseIndex = -1
		log.Printf("[Script] %s: finished", s.name)
		cb := s.onComplete
		s.onComplete = nil
		if cb != nil {
			cb()
		}
		return
	}
	s.phaseIndex = i
	log.Printf("[Script] %s: phase %d (%s)", s.name, i, s.phases[i].Name)
	s.phases[i].Node.Start(ts, func() {
		if s.state != ScriptRunning || s.phaseIndex != i {
			return
		}
		s.runPhase(i+1, ts)
	})
}

// Stop 取消正在运行的阶段，完成回调不会再触发
func (s *Script) Stop() {
	if s.state != ScriptRunning {
		return
	}
	if s.phaseIndex >= 0 && s.phaseIndex < len(s.phases) {
		s.phases[s.phaseIndex].Node.Stop()
	}
	s.state = ScriptStopped
	s.onComplete = nil
	log.Printf("[Script] %s: stopped", s.name)
}

// State 返回当前状态
func (s *Script) State() ScriptState {
	return s.state
}

// PhaseName 返回正在运行的阶段名称
func (s *Script) PhaseName() string {
	if s.phaseIndex < 0 || s.phaseIndex >= len(s.phases) {
		return ""
	}
	return s.phases[s.phaseIndex].Name
}

// Name 返回脚本名称
func (s *Script) Name() string {
	return s.name
}
