package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"puncharena/protocol"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws     *websocket.Conn
	send   chan []byte
	codec  protocol.Codec
	closed bool
}

func NewClientConn(ws *websocket.Conn, codec protocol.Codec, queue int) *ClientConn {
	if queue <= 0 {
		queue = 64
	}
	return &ClientConn{
		ws:    ws,
		send:  make(chan []byte, queue),
		codec: codec,
	}
}

func (c *ClientConn) Codec() protocol.Codec { return c.codec }

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		// 为了实时性直接丢弃，不让慢连接拖住竞技场协程
		return false
	}
}

// Close 关闭发送队列，写协程发出关闭帧后退出。
// 只在竞技场协程内调用，与 Enqueue 不会并发。
func (c *ClientConn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump(t Timeouts) {
	ticker := time.NewTicker(t.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(t.WriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(c.codec.FrameType(), msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(t.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端事件并提交给竞技场；退出时请求竞技场移除该连接
func (c *ClientConn) readPump(arena *Arena, id PlayerID, t Timeouts, log *zap.SugaredLogger) {
	defer c.ws.Close()
	defer arena.Leave(id)
	c.ws.SetReadLimit(t.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(t.PongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(t.PongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugw("read failed", "id", id, "err", err)
			}
			return
		}
		msg, err := c.codec.Decode(payload)
		if err != nil {
			arena.Metrics().IncDropped()
			log.Debugw("bad frame", "id", id, "err", err)
			continue
		}
		arena.Submit(id, msg)
	}
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// 演示环境：允许所有来源（生产环境需严格限制）
			return true
		},
	}
}

// HandleWS WebSocket 接入：/ws?codec=json|msgpack
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("codec")
	if name == "" {
		name = s.cfg.Codec
	}
	codec, err := protocol.Lookup(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClientConn(ws, codec, s.cfg.SendQueue)
	id, ok := s.arena.Join(client)
	if !ok {
		_ = ws.Close()
		return
	}

	go client.writePump(s.cfg.Timeouts)
	go client.readPump(s.arena, id, s.cfg.Timeouts, s.log)
}
