package session

// Mode 会话模式
// 模式只能按 Loading → Playing → CutsceneRunning → BossPhaseRunning → Conclusion
// 的顺序单向前进
type Mode int

const (
	// ModeLoading 正在加载音频
	ModeLoading Mode = iota
	// ModePlaying 点击爱心、敌人来袭
	ModePlaying
	// ModeCutsceneRunning 最终关卡过场动画
	ModeCutsceneRunning
	// ModeBossPhaseRunning Boss 阶段
	ModeBossPhaseRunning
	// ModeConclusion 结局画面
	ModeConclusion
)

var modeNames = map[Mode]string{
	ModeLoading:          "Loading",
	ModePlaying:          "Playing",
	ModeCutsceneRunning:  "CutsceneRunning",
	ModeBossPhaseRunning: "BossPhaseRunning",
	ModeConclusion:       "Conclusion",
}

// String 返回模式名称
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "Unknown"
}

// CanTransitionTo 只允许进入紧邻的下一个模式
func (m Mode) CanTransitionTo(next Mode) bool {
	return next == m+1 && next <= ModeConclusion
}
