package notify

import (
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHub_PublishToTopicSubscribers(t *testing.T) {
	hub := NewHub(nil)

	downloads, cancelDownloads := hub.Subscribe("/topic/download", 4)
	defer cancelDownloads()
	waiting, cancelWaiting := hub.Subscribe("/topic/waiting", 4)
	defer cancelWaiting()

	hub.Publish("/topic/download", "item-1")

	msg := receive(t, downloads)
	if msg.Topic != "/topic/download" || msg.Payload != "item-1" {
		t.Errorf("unexpected message %+v", msg)
	}

	select {
	case msg := <-waiting:
		t.Errorf("unexpected message on other topic: %+v", msg)
	default:
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	ch, cancel := hub.Subscribe("t", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish("t", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	if msg := receive(t, ch); msg.Payload != 0 {
		t.Errorf("expected first message to be kept, got %v", msg.Payload)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil)
	ch, cancel := hub.Subscribe("t", 1)

	if got := hub.Subscribers("t"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if got := hub.Subscribers("t"); got != 0 {
		t.Errorf("expected no subscriber, got %d", got)
	}
	hub.Publish("t", "ignored")
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil)
	ch, cancel := hub.Subscribe("t", 1)

	hub.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}

	late, _ := hub.Subscribe("t", 1)
	if _, ok := <-late; ok {
		t.Error("expected subscription on closed hub to be closed")
	}
	hub.Publish("t", "dropped")
}
