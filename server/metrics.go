package server

import (
	"sync/atomic"
)

// Metrics 记录竞技场运行期的关键指标（用于监控与调试）
type Metrics struct {
	Connected      int64 // 累计建立的连接
	Disconnected   int64 // 累计断开的连接
	EventsReceived int64 // 来自已登记连接的事件数
	EventsDropped  int64 // 静默丢弃的事件数（未知 id、未识别、解码失败）
	InboxFull      int64 // 因收件箱满被丢弃的事件数
	FramesSent     int64 // 成功入队的出站帧
	SendDropped    int64 // 因发送队列满被丢弃的出站帧
	HitsApplied    int64
	Deaths         int64
	ChatMessages   int64
	Handled        int64 // 处理的命令数
	TotalHandleNs  int64 // 命令处理累计耗时（纳秒）
}

func (m *Metrics) IncConnected()    { atomic.AddInt64(&m.Connected, 1) }
func (m *Metrics) IncDisconnected() { atomic.AddInt64(&m.Disconnected, 1) }
func (m *Metrics) IncReceived()     { atomic.AddInt64(&m.EventsReceived, 1) }
func (m *Metrics) IncDropped()      { atomic.AddInt64(&m.EventsDropped, 1) }
func (m *Metrics) IncInboxFull()    { atomic.AddInt64(&m.InboxFull, 1) }
func (m *Metrics) IncSent()         { atomic.AddInt64(&m.FramesSent, 1) }
func (m *Metrics) IncSendDropped()  { atomic.AddInt64(&m.SendDropped, 1) }
func (m *Metrics) IncHit()          { atomic.AddInt64(&m.HitsApplied, 1) }
func (m *Metrics) IncDeath()        { atomic.AddInt64(&m.Deaths, 1) }
func (m *Metrics) IncChat()         { atomic.AddInt64(&m.ChatMessages, 1) }
func (m *Metrics) AddHandle(ns int64) {
	atomic.AddInt64(&m.Handled, 1)
	atomic.AddInt64(&m.TotalHandleNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	handled := atomic.LoadInt64(&m.Handled)
	total := atomic.LoadInt64(&m.TotalHandleNs)
	var avgUs float64
	if handled > 0 {
		avgUs = float64(total) / float64(handled) / 1e3
	}
	connected := atomic.LoadInt64(&m.Connected)
	disconnected := atomic.LoadInt64(&m.Disconnected)
	return map[string]any{
		"connections":     connected - disconnected,
		"connected_total": connected,
		"events_received": atomic.LoadInt64(&m.EventsReceived),
		"events_dropped":  atomic.LoadInt64(&m.EventsDropped),
		"inbox_full":      atomic.LoadInt64(&m.InboxFull),
		"frames_sent":     atomic.LoadInt64(&m.FramesSent),
		"send_dropped":    atomic.LoadInt64(&m.SendDropped),
		"hits_applied":    atomic.LoadInt64(&m.HitsApplied),
		"deaths":          atomic.LoadInt64(&m.Deaths),
		"chat_messages":   atomic.LoadInt64(&m.ChatMessages),
		"avg_handle_us":   avgUs,
	}
}
