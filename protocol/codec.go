package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownCodec = errors.New("protocol: unknown codec")
	ErrEmptyFrame   = errors.New("protocol: empty frame")
	ErrNoEvent      = errors.New("protocol: frame without event name")
)

// Codec 负责信封 {event, data} 的编解码。每个连接握手时选定一种。
type Codec interface {
	Name() string
	// FrameType websocket 帧类型（文本或二进制）
	FrameType() int
	Encode(event string, payload any) ([]byte, error)
	Decode(frame []byte) (Message, error)
	unmarshal(data []byte, v any) error
}

// Message 已解出事件名、载荷尚未解码的入站消息
type Message struct {
	Event string
	data  []byte
	codec Codec
}

// Decode 将载荷解码到 v
func (m Message) Decode(v any) error {
	if m.codec == nil || len(m.data) == 0 {
		return fmt.Errorf("decode %q: empty payload", m.Event)
	}
	if err := m.codec.unmarshal(m.data, v); err != nil {
		return fmt.Errorf("decode %q: %w", m.Event, err)
	}
	return nil
}

// DecodePayload 泛型版本的 Message.Decode
func DecodePayload[T any](m Message) (T, error) {
	var out T
	err := m.Decode(&out)
	return out, err
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// Lookup 按名字查找编解码器，空串返回 JSON
func Lookup(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return Msgpack, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Marshal 编码后立即按同一编解码器解出 Message（测试与本地回环用）
func Marshal(c Codec, event string, payload any) (Message, error) {
	b, err := c.Encode(event, payload)
	if err != nil {
		return Message{}, err
	}
	return c.Decode(b)
}

type jsonCodec struct{}

type jsonEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (jsonCodec) Name() string   { return "json" }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, ErrNoEvent
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", event, err)
	}
	return json.Marshal(jsonEnvelope{Event: event, Data: data})
}

func (c jsonCodec) Decode(frame []byte) (Message, error) {
	if len(frame) == 0 {
		return Message{}, ErrEmptyFrame
	}
	var env jsonEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Message{}, ErrNoEvent
	}
	return Message{Event: env.Event, data: env.Data, codec: c}, nil
}

func (jsonCodec) unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

type msgpackEnvelope struct {
	Event string             `msgpack:"event"`
	Data  msgpack.RawMessage `msgpack:"data"`
}

func (msgpackCodec) Name() string   { return "msgpack" }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, ErrNoEvent
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", event, err)
	}
	return msgpack.Marshal(&msgpackEnvelope{Event: event, Data: data})
}

func (c msgpackCodec) Decode(frame []byte) (Message, error) {
	if len(frame) == 0 {
		return Message{}, ErrEmptyFrame
	}
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(frame, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Message{}, ErrNoEvent
	}
	return Message{Event: env.Event, data: env.Data, codec: c}, nil
}

func (msgpackCodec) unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
