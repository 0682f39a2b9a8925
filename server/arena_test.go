package server

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"puncharena/protocol"
)

type fakeConn struct {
	codec  protocol.Codec
	frames [][]byte
	closed bool
	full   bool
}

func (f *fakeConn) Codec() protocol.Codec { return f.codec }

func (f *fakeConn) Enqueue(b []byte) bool {
	if f.full || f.closed {
		return false
	}
	f.frames = append(f.frames, b)
	return true
}

func (f *fakeConn) Close() { f.closed = true }

// drain 解码并清空已收到的帧
func (f *fakeConn) drain(t *testing.T) []protocol.Message {
	t.Helper()
	out := make([]protocol.Message, 0, len(f.frames))
	for _, b := range f.frames {
		msg, err := f.codec.Decode(b)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		out = append(out, msg)
	}
	f.frames = nil
	return out
}

func events(msgs []protocol.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Event
	}
	return out
}

func join(t *testing.T, a *Arena, id PlayerID) *fakeConn {
	t.Helper()
	fc := &fakeConn{codec: protocol.JSON}
	a.handle(joinCmd{id: id, conn: fc})
	msgs := fc.drain(t)
	if len(msgs) != 1 || msgs[0].Event != protocol.EvSession {
		t.Fatalf("join %s: got %v, want session handshake", id, events(msgs))
	}
	s, err := protocol.DecodePayload[protocol.Session](msgs[0])
	if err != nil || s.ID != string(id) {
		t.Fatalf("session payload = %+v, %v", s, err)
	}
	return fc
}

func send(t *testing.T, a *Arena, id PlayerID, event string, payload any) {
	t.Helper()
	msg, err := protocol.Marshal(protocol.JSON, event, payload)
	if err != nil {
		t.Fatalf("marshal %s: %v", event, err)
	}
	a.handle(eventCmd{id: id, msg: msg})
}

func create(t *testing.T, a *Arena, id PlayerID, name string) {
	t.Helper()
	send(t, a, id, protocol.EvPlayerCreation, protocol.Creation{AvatarName: "knight", DisplayName: name})
}

func healthSeq(t *testing.T, msgs []protocol.Message, target string) []int {
	t.Helper()
	var seq []int
	for _, m := range msgs {
		if m.Event != protocol.EvUpdateHealth {
			continue
		}
		h, err := protocol.DecodePayload[protocol.HealthUpdate](m)
		if err != nil {
			t.Fatal(err)
		}
		if h.ID == target {
			seq = append(seq, h.Health)
		}
	}
	return seq
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreationRosterFanout(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	create(t, a, "A", "alice")

	msgs := ca.drain(t)
	if len(msgs) != 1 || msgs[0].Event != protocol.EvExistingPlayers {
		t.Fatalf("A got %v, want existing-players", events(msgs))
	}
	roster, _ := protocol.DecodePayload[protocol.Roster](msgs[0])
	rec, ok := roster["A"]
	if len(roster) != 1 || !ok {
		t.Fatalf("roster = %+v", roster)
	}
	if rec.Health != 100 || rec.X != 0 || rec.Z != 0 || rec.RotationY != 0 || rec.DisplayName != "alice" {
		t.Fatalf("new record = %+v", rec)
	}

	cb := join(t, a, "B")
	create(t, a, "B", "bob")

	msgs = cb.drain(t)
	if len(msgs) != 1 || msgs[0].Event != protocol.EvExistingPlayers {
		t.Fatalf("B got %v", events(msgs))
	}
	roster, _ = protocol.DecodePayload[protocol.Roster](msgs[0])
	if _, okA := roster["A"]; !okA || len(roster) != 2 {
		t.Fatalf("B roster = %+v", roster)
	}
	if _, okB := roster["B"]; !okB {
		t.Fatalf("B roster missing B: %+v", roster)
	}

	msgs = ca.drain(t)
	if len(msgs) != 1 || msgs[0].Event != protocol.EvNewRemotePlayer {
		t.Fatalf("A got %v, want one new-remote-player", events(msgs))
	}
	nr, _ := protocol.DecodePayload[protocol.PlayerRecord](msgs[0])
	if nr.ID != "B" || nr.DisplayName != "bob" {
		t.Fatalf("new-remote-player = %+v", nr)
	}
}

func TestThreeHitsBroadcastHealth(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	cb := join(t, a, "B")
	create(t, a, "A", "alice")
	create(t, a, "B", "bob")
	ca.drain(t)
	cb.drain(t)

	for i := 0; i < 3; i++ {
		send(t, a, "B", protocol.EvHit, protocol.Hit{TargetID: "A"})
	}
	want := []int{80, 60, 40}
	for name, c := range map[string]*fakeConn{"A": ca, "B": cb} {
		msgs := c.drain(t)
		if got := healthSeq(t, msgs, "A"); !equalInts(got, want) {
			t.Fatalf("%s saw health %v, want %v", name, got, want)
		}
		for _, m := range msgs {
			if m.Event == protocol.EvRemovePlayer {
				t.Fatalf("%s got unexpected removal", name)
			}
		}
	}
	if got := a.roster["A"].Health.Value(); got != 40 {
		t.Fatalf("roster health = %d", got)
	}
}

func TestFifthHitRemovesPlayer(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	cb := join(t, a, "B")
	create(t, a, "A", "alice")
	create(t, a, "B", "bob")
	ca.drain(t)
	cb.drain(t)

	for i := 0; i < 5; i++ {
		send(t, a, "B", protocol.EvHit, protocol.Hit{TargetID: "A"})
	}
	msgs := cb.drain(t)
	if got := healthSeq(t, msgs, "A"); !equalInts(got, []int{80, 60, 40, 20, 0}) {
		t.Fatalf("health sequence = %v", got)
	}
	last := msgs[len(msgs)-1]
	if last.Event != protocol.EvRemovePlayer {
		t.Fatalf("last event = %s, want remove-player", last.Event)
	}
	if r, _ := protocol.DecodePayload[protocol.Removal](last); r.ID != "A" {
		t.Fatalf("removal id = %q", r.ID)
	}
	if msgs[len(msgs)-2].Event != protocol.EvUpdateHealth {
		t.Fatalf("removal should directly follow the final health update: %v", events(msgs))
	}
	if _, ok := a.roster["A"]; ok {
		t.Fatal("A still in roster")
	}
	if a.peers["A"].state != StateConnected {
		t.Fatalf("dead peer state = %v", a.peers["A"].state)
	}
	ca.drain(t)

	// 死亡后的一切事件都不再产生广播
	send(t, a, "B", protocol.EvHit, protocol.Hit{TargetID: "A"})
	send(t, a, "A", protocol.EvMove, protocol.Move{X: 3})
	send(t, a, "A", protocol.EvAction, protocol.Action{Type: protocol.ActionPunch})
	send(t, a, "A", protocol.EvHit, protocol.Hit{TargetID: "B"})
	if n := len(ca.frames) + len(cb.frames); n != 0 {
		t.Fatalf("expected no frames after death, got %d", n)
	}
	if got := a.roster["B"].Health.Value(); got != 100 {
		t.Fatalf("dead player landed a hit: B health = %d", got)
	}
	if a.metrics.Deaths != 1 {
		t.Fatalf("deaths = %d", a.metrics.Deaths)
	}

	// 重新创建后才会再次出现在名册中
	create(t, a, "A", "alice-again")
	if rec, ok := a.roster["A"]; !ok || rec.Health.Value() != 100 {
		t.Fatalf("re-created record = %+v", rec)
	}
}

func TestRosterConsistencyAfterDisconnects(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	const n, m = 6, 4
	conns := map[PlayerID]*fakeConn{}
	for i := 0; i < n; i++ {
		id := PlayerID(fmt.Sprintf("p%d", i))
		conns[id] = join(t, a, id)
		create(t, a, id, string(id))
	}
	for i := 0; i < m; i++ {
		id := PlayerID(fmt.Sprintf("p%d", i))
		a.handle(leaveCmd{id: id})
		if !conns[id].closed {
			t.Fatalf("%s connection not closed", id)
		}
	}
	if len(a.roster) != n-m {
		t.Fatalf("roster size = %d, want %d", len(a.roster), n-m)
	}
	for id := range a.roster {
		if _, ok := a.peers[id]; !ok {
			t.Fatalf("roster holds %s without a connection", id)
		}
	}

	removed := map[string]int{}
	for _, msg := range conns["p5"].drain(t) {
		if msg.Event == protocol.EvRemovePlayer {
			r, _ := protocol.DecodePayload[protocol.Removal](msg)
			removed[r.ID]++
		}
	}
	for i := 0; i < m; i++ {
		if removed[fmt.Sprintf("p%d", i)] != 1 {
			t.Fatalf("removals = %v", removed)
		}
	}
}

func TestCreationIsIdempotent(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	cb := join(t, a, "B")
	create(t, a, "A", "alice")
	send(t, a, "A", protocol.EvMove, protocol.Move{X: 4, Z: 2, RotationY: 1, AnimState: protocol.AnimRun})
	send(t, a, "A", protocol.EvPlayerCreation, protocol.Creation{AvatarName: "mage", DisplayName: "alicia"})

	if len(a.roster) != 1 {
		t.Fatalf("roster size = %d", len(a.roster))
	}
	rec := a.roster["A"].Record()
	if rec.DisplayName != "alicia" || rec.AvatarName != "mage" || rec.X != 0 || rec.AnimState != protocol.AnimIdle {
		t.Fatalf("record after refresh = %+v", rec)
	}
	if got := events(ca.drain(t)); len(got) != 2 || got[0] != protocol.EvExistingPlayers || got[1] != protocol.EvExistingPlayers {
		t.Fatalf("A got %v", got)
	}
	if got := events(cb.drain(t)); len(got) != 3 || got[0] != protocol.EvNewRemotePlayer || got[2] != protocol.EvNewRemotePlayer {
		t.Fatalf("B got %v", got)
	}
}

func TestMoveRelayExcludesSender(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	cb := join(t, a, "B")

	send(t, a, "A", protocol.EvMove, protocol.Move{X: 1})
	if len(cb.frames) != 0 || a.metrics.EventsDropped != 1 {
		t.Fatalf("unidentified move should be dropped silently (frames=%d dropped=%d)", len(cb.frames), a.metrics.EventsDropped)
	}

	create(t, a, "A", "alice")
	ca.drain(t)
	cb.drain(t)
	send(t, a, "A", protocol.EvMove, protocol.Move{X: 1.5, Z: -2, RotationY: 0.7, AnimState: protocol.AnimRun})

	if len(ca.frames) != 0 {
		t.Fatal("sender received its own move")
	}
	msgs := cb.drain(t)
	if len(msgs) != 1 || msgs[0].Event != protocol.EvMove {
		t.Fatalf("B got %v", events(msgs))
	}
	mv, _ := protocol.DecodePayload[protocol.Move](msgs[0])
	if mv.ID != "A" || mv.X != 1.5 || mv.Z != -2 || mv.RotationY != 0.7 || mv.AnimState != protocol.AnimRun {
		t.Fatalf("relayed move = %+v", mv)
	}
	rec := a.roster["A"]
	if rec.X != 1.5 || rec.Z != -2 || rec.AnimState != protocol.AnimRun {
		t.Fatalf("roster pose = %+v", rec)
	}
}

func TestActionAndChatReachEveryone(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	cb := join(t, a, "B")
	create(t, a, "A", "alice")
	ca.drain(t)
	cb.drain(t)

	send(t, a, "A", protocol.EvAction, protocol.Action{Type: protocol.ActionPunch})
	send(t, a, "A", protocol.EvAction, protocol.Action{Type: "kick"})
	send(t, a, "A", protocol.EvChatMessage, protocol.Chat{Name: "spoofed", Text: "hi"})

	for name, c := range map[string]*fakeConn{"A": ca, "B": cb} {
		msgs := c.drain(t)
		if got := events(msgs); len(got) != 2 || got[0] != protocol.EvAction || got[1] != protocol.EvChatMessage {
			t.Fatalf("%s got %v", name, got)
		}
		act, _ := protocol.DecodePayload[protocol.Action](msgs[0])
		if act.ID != "A" || act.Type != protocol.ActionPunch {
			t.Fatalf("%s action = %+v", name, act)
		}
		chat, _ := protocol.DecodePayload[protocol.Chat](msgs[1])
		if chat.ID != "A" || chat.Name != "alice" || chat.Text != "hi" {
			t.Fatalf("%s chat = %+v", name, chat)
		}
	}
}

func TestProtocolGapsAreSilent(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	create(t, a, "A", "alice")
	ca.drain(t)

	send(t, a, "ghost", protocol.EvMove, protocol.Move{})
	send(t, a, "A", "teleport", protocol.Move{})
	send(t, a, "A", protocol.EvHit, protocol.Hit{TargetID: "nobody"})
	msg, _ := protocol.JSON.Decode([]byte(`{"event":"hit","data":{"targetId":1}}`))
	a.handle(eventCmd{id: "A", msg: msg})
	a.handle(leaveCmd{id: "ghost"})

	if len(ca.frames) != 0 {
		t.Fatalf("gaps produced frames: %v", events(ca.drain(t)))
	}
	if a.metrics.EventsDropped != 4 {
		t.Fatalf("dropped = %d, want 4", a.metrics.EventsDropped)
	}
}

func TestLeaveOfUnidentifiedPeerIsQuiet(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	join(t, a, "B")
	a.handle(leaveCmd{id: "B"})
	if len(ca.frames) != 0 {
		t.Fatalf("unexpected frames: %v", events(ca.drain(t)))
	}
	if _, ok := a.peers["B"]; ok {
		t.Fatal("B still registered")
	}
}

func TestBroadcastMixedCodecsAndFullQueues(t *testing.T) {
	a := NewArena(ArenaOptions{}, nil)
	ca := join(t, a, "A")
	cm := &fakeConn{codec: protocol.Msgpack}
	a.handle(joinCmd{id: "M", conn: cm})
	cf := join(t, a, "F")
	create(t, a, "A", "alice")
	ca.drain(t)
	cm.drain(t)
	cf.drain(t)
	cf.full = true

	send(t, a, "A", protocol.EvChatMessage, protocol.Chat{Text: "gg"})
	msgs := cm.drain(t)
	if len(msgs) != 1 {
		t.Fatalf("msgpack peer got %v", events(msgs))
	}
	chat, err := protocol.DecodePayload[protocol.Chat](msgs[0])
	if err != nil || chat.Text != "gg" || chat.Name != "alice" {
		t.Fatalf("msgpack chat = %+v, %v", chat, err)
	}
	if a.metrics.SendDropped != 1 {
		t.Fatalf("send dropped = %d", a.metrics.SendDropped)
	}
}

// chanConn 供运行中的竞技场协程使用，帧通过通道交给测试协程
type chanConn struct {
	ch chan []byte
}

func (c *chanConn) Codec() protocol.Codec { return protocol.JSON }
func (c *chanConn) Enqueue(b []byte) bool {
	select {
	case c.ch <- b:
		return true
	default:
		return false
	}
}
func (c *chanConn) Close() {}

func TestRunLoopServesRosterAndStops(t *testing.T) {
	a := NewArena(ArenaOptions{StatsInterval: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)

	cc := &chanConn{ch: make(chan []byte, 16)}
	id, ok := a.Join(cc)
	if !ok || id == "" {
		t.Fatalf("Join = %q, %v", id, ok)
	}
	msg, _ := protocol.Marshal(protocol.JSON, protocol.EvPlayerCreation, protocol.Creation{DisplayName: "zed"})
	a.Submit(id, msg)

	deadline := time.After(time.Second)
	for {
		select {
		case b := <-cc.ch:
			m, _ := protocol.JSON.Decode(b)
			if m.Event != protocol.EvExistingPlayers {
				continue
			}
		case <-deadline:
			t.Fatal("timed out waiting for existing-players")
		}
		break
	}

	roster, err := a.Roster(context.Background())
	if err != nil || len(roster) != 1 || roster[string(id)].DisplayName != "zed" {
		t.Fatalf("Roster = %+v, %v", roster, err)
	}

	cancel()
	stopped := time.After(time.Second)
	for {
		_, err := a.Roster(context.Background())
		if errors.Is(err, ErrArenaStopped) {
			break
		}
		select {
		case <-stopped:
			t.Fatal("arena did not stop")
		case <-time.After(5 * time.Millisecond):
		}
	}
	a.Leave(id) // 停止后不应阻塞
	if _, ok := a.Join(cc); ok {
		t.Fatal("Join after stop should fail")
	}
}
