package fanout

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

func TestFanoutDeliversFrames(t *testing.T) {
	f := New(WithSessionKey("test"))
	defer f.Close()

	sub := f.SubscribeFrames()
	go func() {
		_ = f.SinkFrame(&model.Frame{Seq: 1})
	}()
	select {
	case frame := <-sub:
		if frame.Seq != 1 {
			t.Errorf("frame seq not correct: %d", frame.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
}

func TestFanoutMultipleSubscribers(t *testing.T) {
	f := New()
	defer f.Close()

	first := f.SubscribeFrames()
	second := f.SubscribeFrames()

	var wg sync.WaitGroup
	receive := func(ch <-chan *model.Frame) {
		defer wg.Done()
		select {
		case frame := <-ch:
			if frame.Seq != 7 {
				t.Errorf("frame seq not correct: %d", frame.Seq)
			}
		case <-time.After(time.Second):
			t.Error("no frame received")
		}
	}
	wg.Add(2)
	go receive(first)
	go receive(second)

	_ = f.SinkFrame(&model.Frame{Seq: 7})
	wg.Wait()
}

func TestFanoutSlowSubscriberIsSkipped(t *testing.T) {
	f := New()
	defer f.Close()

	// this subscriber never reads
	f.SubscribeFrames()
	fast := f.SubscribeFrames()

	go func() {
		_ = f.SinkFrame(&model.Frame{Seq: 2})
	}()
	select {
	case frame := <-fast:
		if frame.Seq != 2 {
			t.Errorf("frame seq not correct: %d", frame.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("fast subscriber should still receive data")
	}
}

func TestFanoutCancelSubscription(t *testing.T) {
	f := New()
	defer f.Close()

	sub := f.SubscribeStates()
	f.CancelStates(sub)
	select {
	case _, ok := <-sub:
		if ok {
			t.Error("channel should be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestFanoutClosed(t *testing.T) {
	f := New()
	f.Close()
	if err := f.SinkState(&model.PlaybackState{}); !errors.Is(err, ErrClosed) {
		t.Errorf("error not correct: %v", err)
	}
}
