package backend

import (
	"context"
	"testing"
	"time"

	"github.com/ridealert/go-helmet-api/events"
)

func TestBroadcaster_Subscribe_ReceivesAll(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	upstream <- events.Event{Type: events.TypeFlowState}
	upstream <- events.Event{Type: events.TypeHelmetConnected}

	for _, want := range []string{events.TypeFlowState, events.TypeHelmetConnected} {
		select {
		case got := <-ch:
			if got.Type != want {
				t.Errorf("got %s, want %s", got.Type, want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timed out waiting for event %s", want)
		}
	}
}

func TestBroadcaster_SubscribeFunc_FiltersEvents(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	filter := func(e events.Event) bool { return e.Type == events.TypeHelmetConnected }
	ch := b.SubscribeFunc(filter)
	defer b.Unsubscribe(ch)

	// Send one matching and one non-matching event.
	upstream <- events.Event{Type: events.TypeHelmetConnected}
	upstream <- events.Event{Type: events.TypeFlowState}

	// Only the helmet event should arrive.
	select {
	case got := <-ch:
		if got.Type != events.TypeHelmetConnected {
			t.Errorf("got %s, want %s", got.Type, events.TypeHelmetConnected)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for helmet.connected event")
	}

	// Flow event must not be in the channel.
	select {
	case got := <-ch:
		t.Errorf("unexpected event %s delivered through filter", got.Type)
	case <-time.After(30 * time.Millisecond):
		// expected: nothing received
	}
}

func TestBroadcaster_SubscribeFunc_NilFilterPassesAll(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch := b.SubscribeFunc(nil)
	defer b.Unsubscribe(ch)

	upstream <- events.Event{Type: events.TypeAlertTriggered}

	select {
	case got := <-ch:
		if got.Type != events.TypeAlertTriggered {
			t.Errorf("got %s, want %s", got.Type, events.TypeAlertTriggered)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for alert.triggered event")
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	upstream := make(chan events.Event, 4)
	b := NewBroadcaster(context.Background(), upstream)

	ch1 := b.Subscribe()
	defer b.Unsubscribe(ch1)
	ch2 := b.Subscribe()
	defer b.Unsubscribe(ch2)

	upstream <- events.Event{Type: events.TypeStoreChanged, Data: "userDetails"}

	for _, ch := range []chan events.Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Type != events.TypeStoreChanged {
				t.Errorf("got %s, want %s", got.Type, events.TypeStoreChanged)
			}
			if key, ok := got.Data.(string); !ok || key != "userDetails" {
				t.Errorf("data = %v, want userDetails", got.Data)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timed out waiting for fan-out")
		}
	}
}

func TestFanIn_MergesSources(t *testing.T) {
	a := make(chan events.Event, 1)
	c := make(chan events.Event, 1)
	merged := fanIn(context.Background(), a, nil, c)

	a <- events.Event{Type: events.TypeFlowState}
	c <- events.Event{Type: events.TypeAlertTriggered}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-merged:
			seen[e.Type] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timed out waiting for merged events")
		}
	}
	if !seen[events.TypeFlowState] || !seen[events.TypeAlertTriggered] {
		t.Errorf("merged events = %v, want both sources", seen)
	}
}

func TestFanIn_ClosesWhenSourcesClose(t *testing.T) {
	a := make(chan events.Event)
	merged := fanIn(context.Background(), a)
	close(a)

	select {
	case _, ok := <-merged:
		if ok {
			t.Error("expected merged channel to close without events")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("merged channel did not close")
	}
}
