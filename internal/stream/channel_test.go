package stream

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChannel_EmitAndDrain(t *testing.T) {
	c := NewChannel()

	events := []Event{
		{Type: EventUserMessageID, Content: "msg-1"},
		{Type: EventTextDelta, Content: "Hello"},
		{Type: EventTextDelta, Content: ", world"},
	}
	for _, ev := range events {
		if err := c.Emit(ev); err != nil {
			t.Fatalf("Emit(%v) = %v", ev.Type, err)
		}
	}
	c.Close()

	var got []Event
	for ev := range c.Events() {
		got = append(got, ev)
	}
	if len(got) != len(events) {
		t.Fatalf("drained %d events, want %d", len(got), len(events))
	}
	for i, ev := range got {
		if ev.Type != events[i].Type || ev.Content != events[i].Content {
			t.Errorf("event %d = %+v, want %+v", i, ev, events[i])
		}
	}
}

func TestChannel_EmitAfterClose(t *testing.T) {
	c := NewChannel()
	c.Close()

	if err := c.Emit(Event{Type: EventTextDelta, Content: "late"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Emit after Close = %v, want ErrClosed", err)
	}
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	c := NewChannel()
	c.Close()
	c.Close() // must not panic

	if _, ok := <-c.Events(); ok {
		t.Fatal("Events() open after Close")
	}
}

func TestChannel_ConcurrentEmitAndClose(t *testing.T) {
	c := NewChannel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range c.Events() {
		}
	}()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if err := c.Emit(Event{Type: EventTextDelta, Content: "x"}); err != nil {
					// Closed mid-flight is the expected way out.
					if !errors.Is(err, ErrClosed) {
						t.Errorf("Emit = %v, want nil or ErrClosed", err)
					}
					return
				}
			}
		}()
	}

	c.Close()
	wg.Wait()
	<-done
}

func TestContextRoundTrip(t *testing.T) {
	c := NewChannel()
	defer c.Close()

	ctx := ContextWith(context.Background(), c)
	if got := FromContext(ctx); got != c {
		t.Fatal("FromContext did not return the attached channel")
	}
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("FromContext(bare) = %v, want nil", got)
	}
}
