// Package clock 提供确定性的协作式定时器调度器
//
// 游戏内所有“异步完成”（实体过期、敌人到达、动画阶段结束）都表示为
// Scheduler 上的定时器，由帧循环调用 Advance 推进。测试中直接调用
// Advance 即可精确控制时间。
package clock

import (
	"container/heap"
	"log"
	"time"
)

// minPeriod 重复定时器的最小周期，防止零周期导致 Advance 死循环
const minPeriod = time.Millisecond

// TimerSource 是可以创建定时器的对象（Scheduler 或 Group）
type TimerSource interface {
	After(d time.Duration, fn func()) *Timer
	Every(period time.Duration, fn func()) *Timer
	Now() time.Duration
}

// Timer 是一个已调度的定时器句柄
type Timer struct {
	due     time.Duration
	period  time.Duration
	seq     uint64
	fn      func()
	index   int
	stopped bool
	group   *Group
}

// Stop 取消定时器；对 nil 或已停止的定时器调用是安全的
func (t *Timer) Stop() {
	if t == nil || t.stopped {
		return
	}
	t.stopped = true
	if t.group != nil {
		t.group.forget(t)
	}
}

// Active 返回定时器是否仍会触发
func (t *Timer) Active() bool {
	return t != nil && !t.stopped
}

// Due 返回下一次触发的时间点
func (t *Timer) Due() time.Duration {
	if t == nil {
		return 0
	}
	return t.due
}

type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler 单线程定时器调度器
//
// 定时器按 (到期时间, 创建顺序) 触发。触发期间 Now() 等于该定时器的到期时间，
// 因此回调中创建的新定时器以精确的触发时刻为基准。
type Scheduler struct {
	now   time.Duration
	seq   uint64
	queue timerQueue
}

// NewScheduler 创建一个时间从 0 开始的调度器
func NewScheduler() *Scheduler {
	return &Scheduler{queue: make(timerQueue, 0, 64)}
}

// Now 返回调度器的当前时间
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After 在 d 之后触发一次 fn（d < 0 视为 0）
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	return s.schedule(d, 0, fn)
}

// Every 每隔 period 触发一次 fn，首次触发在 period 之后
func (s *Scheduler) Every(period time.Duration, fn func()) *Timer {
	if period < minPeriod {
		log.Printf("[Scheduler] Warning: period %v too small, clamped to %v", period, minPeriod)
		period = minPeriod
	}
	return s.schedule(period, period, fn)
}

func (s *Scheduler) schedule(delay, period time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{
		due:    s.now + delay,
		period: period,
		seq:    s.seq,
		fn:     fn,
	}
	heap.Push(&s.queue, t)
	return t
}

// Advance 将时间推进 dt，并按顺序触发所有到期的定时器
func (s *Scheduler) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt

	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.due > target {
			break
		}
		heap.Pop(&s.queue)
		if next.stopped {
			continue
		}

		s.now = next.due
		if next.period > 0 {
			// 先重新入队，回调中调用 Stop 时能正确取消
			s.seq++
			next.seq = s.seq
			next.due += next.period
			heap.Push(&s.queue, next)
		} else {
			next.stopped = true
			if next.group != nil {
				next.group.forget(next)
			}
		}
		next.fn()
	}

	s.now = target
}

// Pending 返回仍处于活动状态的定时器数量
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.queue {
		if !t.stopped {
			n++
		}
	}
	return n
}
