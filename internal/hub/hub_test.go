package hub

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"supportdesk/internal/model"
)

// fakeConn はWriteJSONされたイベントをチャネルに記録するテスト用コネクション
type fakeConn struct {
	events chan model.NewMessageEvent
	fail   bool
	closed bool
	mu     sync.Mutex
}

func newFakeConn() *fakeConn {
	// バッファを大きめに取り、テスト中のWriteJSONがブロックしないようにする
	return &fakeConn{events: make(chan model.NewMessageEvent, 1000)}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("write failed")
	}
	c.events <- v.(model.NewMessageEvent)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) receive(t *testing.T) model.NewMessageEvent {
	t.Helper()
	select {
	case ev := <-c.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for broadcast event")
		return model.NewMessageEvent{}
	}
}

// stalledConn はWriteJSONが戻らないテスト用コネクション（TCPストール相当）
type stalledConn struct {
	unblock chan struct{}
}

func newStalledConn() *stalledConn {
	return &stalledConn{unblock: make(chan struct{})}
}

func (c *stalledConn) WriteJSON(v interface{}) error {
	<-c.unblock
	return errors.New("connection reset")
}

func (c *stalledConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *stalledConn) Close() error                       { return nil }

// release は保留中のWriteJSONを解放する（テスト終了時のゴルーチン回収用）
func (c *stalledConn) release() {
	close(c.unblock)
}

// waitCount セッション数が期待値になるまで待つ
func waitCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Session count did not reach %d, still %d", want, h.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestHub_PublishFanOut 接続中の全セッションへ配信されることを確認
func TestHub_PublishFanOut(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	connA, connB := newFakeConn(), newFakeConn()
	h.Subscribe(NewSession(connA))
	h.Subscribe(NewSession(connB))

	if h.Count() != 2 {
		t.Fatalf("Expected 2 sessions, got %d", h.Count())
	}

	msg := model.Message{ID: "1", Sender: "alice", Text: "hello"}
	h.Publish(msg)

	for _, conn := range []*fakeConn{connA, connB} {
		ev := conn.receive(t)
		if ev.Type != model.EventNewMessage {
			t.Errorf("Expected event type %q, got %q", model.EventNewMessage, ev.Type)
		}
		if ev.Message.ID != "1" || ev.Message.Text != "hello" {
			t.Errorf("Unexpected message payload: %+v", ev.Message)
		}
	}
}

// TestHub_SessionIDs セッションIDが一意に採番されることを確認
func TestHub_SessionIDs(t *testing.T) {
	a, b := NewSession(newFakeConn()), NewSession(newFakeConn())
	if a.ID == "" || b.ID == "" {
		t.Fatal("Session ID should not be empty")
	}
	if a.ID == b.ID {
		t.Fatalf("Session IDs should be unique, both were %s", a.ID)
	}
}

// TestHub_UnsubscribedSessionReceivesNothing 購読解除後は受信しない
func TestHub_UnsubscribedSessionReceivesNothing(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	connA, connB := newFakeConn(), newFakeConn()
	sessA, sessB := NewSession(connA), NewSession(connB)
	h.Subscribe(sessA)
	h.Subscribe(sessB)

	h.Unsubscribe(sessB)
	waitCount(t, h, 1)

	h.Publish(model.Message{ID: "1", Text: "only for A"})

	connA.receive(t)

	select {
	case ev := <-connB.events:
		t.Errorf("Unsubscribed session should not receive events, got %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestHub_LateSubscriberMissesEarlierEvents 配信後に接続したセッションは過去分を受信しない
func TestHub_LateSubscriberMissesEarlierEvents(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	early := newFakeConn()
	h.Subscribe(NewSession(early))

	h.Publish(model.Message{ID: "1", Text: "before"})
	early.receive(t)

	late := newFakeConn()
	h.Subscribe(NewSession(late))

	h.Publish(model.Message{ID: "2", Text: "after"})
	if ev := late.receive(t); ev.Message.ID != "2" {
		t.Errorf("Late subscriber should only see the second event, got %+v", ev.Message)
	}
}

// TestHub_EvictsFailingSession 書き込み失敗したセッションは切断・削除される
func TestHub_EvictsFailingSession(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	good, bad := newFakeConn(), newFakeConn()
	bad.fail = true
	h.Subscribe(NewSession(good))
	h.Subscribe(NewSession(bad))

	h.Publish(model.Message{ID: "1", Text: "hello"})
	good.receive(t)

	// 退出処理の完了を待つ
	waitCount(t, h, 1)

	deadline := time.Now().Add(2 * time.Second)
	for {
		bad.mu.Lock()
		closed := bad.closed
		bad.mu.Unlock()
		if closed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Evicted session's connection should be closed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// 残ったセッションは引き続き受信できる
	h.Publish(model.Message{ID: "2", Text: "still alive"})
	if ev := good.receive(t); ev.Message.ID != "2" {
		t.Errorf("Surviving session should keep receiving, got %+v", ev.Message)
	}
}

// TestHub_SlowViewerDoesNotBlockOthers 停止したビューアが他のセッションや
// 送信側（intakeパイプライン）をブロックしないことを確認
func TestHub_SlowViewerDoesNotBlockOthers(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	stalled := newStalledConn()
	defer stalled.release()
	healthy := newFakeConn()
	h.Subscribe(NewSession(stalled))
	h.Subscribe(NewSession(healthy))

	// 停止中のセッションのキューが確実に溢れる件数を配信する
	total := sendBuffer + 10
	published := make(chan struct{})
	go func() {
		for i := 1; i <= total; i++ {
			h.Publish(model.Message{ID: fmt.Sprintf("%d", i)})
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked behind a stalled viewer")
	}

	// 健全なセッションは全イベントを順に受信する
	for i := 1; i <= total; i++ {
		ev := healthy.receive(t)
		if ev.Message.ID != fmt.Sprintf("%d", i) {
			t.Fatalf("Out-of-order delivery: got ID %s at position %d", ev.Message.ID, i)
		}
	}

	// 追いつけないセッションは切断される
	waitCount(t, h, 1)
}

// TestHub_DeliveryOrder 単一セッションへの配信順序はPublish順と一致する
func TestHub_DeliveryOrder(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	conn := newFakeConn()
	h.Subscribe(NewSession(conn))

	for i := 1; i <= 20; i++ {
		h.Publish(model.Message{ID: fmt.Sprintf("%d", i)})
	}

	for i := 1; i <= 20; i++ {
		ev := conn.receive(t)
		if ev.Message.ID != fmt.Sprintf("%d", i) {
			t.Fatalf("Out-of-order delivery: got ID %s at position %d", ev.Message.ID, i)
		}
	}
}

// TestHub_ConcurrentAccess 並行subscribe/unsubscribe/publishの安全性確認
func TestHub_ConcurrentAccess(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := NewSession(newFakeConn())
				h.Subscribe(s)
				h.Unsubscribe(s)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Publish(model.Message{ID: "x", Text: "concurrent"})
			}
		}()
	}
	wg.Wait()
}
