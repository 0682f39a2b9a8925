package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"puncharena/protocol"
)

var (
	ErrClosed        = errors.New("client closed")
	ErrSendQueueFull = errors.New("send queue full")
)

// NetClient 到中继服务器的 WebSocket 连接，实现 Emitter
type NetClient struct {
	conn  *websocket.Conn
	codec protocol.Codec
	send  chan []byte
	done  chan struct{}
	log   *zap.SugaredLogger

	closeOnce sync.Once
}

// Dial 连接 wsURL，并通过 codec 查询参数协商编解码器
func Dial(ctx context.Context, wsURL string, codec protocol.Codec, log *zap.SugaredLogger) (*NetClient, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", wsURL, err)
	}
	q := u.Query()
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return &NetClient{
		conn:  conn,
		codec: codec,
		send:  make(chan []byte, 256),
		done:  make(chan struct{}),
		log:   log,
	}, nil
}

// Start 启动读写协程，每条入站事件交给 deliver
func (nc *NetClient) Start(deliver func(protocol.Message)) {
	go nc.readPump(deliver)
	go nc.writePump()
}

// Emit 编码并入队（非阻塞）
func (nc *NetClient) Emit(event string, payload any) error {
	select {
	case <-nc.done:
		return ErrClosed
	default:
	}
	b, err := nc.codec.Encode(event, payload)
	if err != nil {
		return err
	}
	select {
	case nc.send <- b:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Done 连接断开后关闭
func (nc *NetClient) Done() <-chan struct{} { return nc.done }

func (nc *NetClient) Close() error {
	nc.closeOnce.Do(func() {
		close(nc.done)
	})
	return nil
}

func (nc *NetClient) readPump(deliver func(protocol.Message)) {
	defer nc.Close()
	for {
		_, frame, err := nc.conn.ReadMessage()
		if err != nil {
			select {
			case <-nc.done:
			default:
				nc.log.Infow("connection lost", "err", err)
			}
			return
		}
		msg, err := nc.codec.Decode(frame)
		if err != nil {
			nc.log.Debugw("bad frame", "err", err)
			continue
		}
		deliver(msg)
	}
}

func (nc *NetClient) writePump() {
	defer nc.conn.Close()
	for {
		select {
		case b := <-nc.send:
			_ = nc.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := nc.conn.WriteMessage(nc.codec.FrameType(), b); err != nil {
				nc.Close()
				return
			}
		case <-nc.done:
			_ = nc.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = nc.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
