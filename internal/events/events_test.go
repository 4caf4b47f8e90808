package events

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/LiamSkop/Chavr/internal/observe"
)

func TestChannelSinkDelivers(t *testing.T) {
	s := NewChannelSink(4)
	want := Event{Text: "hello", Kind: KindSpeech, Language: "en", Timestamp: time.Now()}
	s.Publish(want)

	select {
	case got := <-s.Events():
		if got != want {
			t.Fatalf("received %+v, want %+v", got, want)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestChannelSinkNeverBlocks(t *testing.T) {
	s := NewChannelSink(2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.Publish(Event{Text: "x", Kind: KindProcessing})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no consumer")
	}
}

func TestChannelSinkEvictsOldest(t *testing.T) {
	s := NewChannelSink(2)
	s.Publish(Event{Text: "first", Kind: KindSpeech})
	s.Publish(Event{Text: "second", Kind: KindSpeech})
	s.Publish(Event{Text: "third", Kind: KindSpeech})

	got := <-s.Events()
	if got.Text != "second" {
		t.Fatalf("first received event = %q, want %q (oldest evicted)", got.Text, "second")
	}
	got = <-s.Events()
	if got.Text != "third" {
		t.Fatalf("second received event = %q, want %q", got.Text, "third")
	}
}

func TestChannelSinkConcurrentPublishers(t *testing.T) {
	s := NewChannelSink(8)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Publish(Event{Kind: KindProcessing})
			}
		}()
	}
	wg.Wait()

	if n := len(s.Events()); n > 8 {
		t.Fatalf("buffered events = %d, want at most capacity 8", n)
	}
}

func TestFuncSink(t *testing.T) {
	var got Event
	s := Func(func(ev Event) { got = ev })
	s.Publish(Event{Text: "ping", Kind: KindError})
	if got.Text != "ping" || got.Kind != KindError {
		t.Fatalf("Func sink received %+v", got)
	}
}

func TestNewChannelSinkDefaultCapacity(t *testing.T) {
	s := NewChannelSink(0)
	if cap(s.ch) != 64 {
		t.Fatalf("default capacity = %d, want 64", cap(s.ch))
	}
}

func TestChannelSinkCountsEvictions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	s := NewChannelSink(1).WithMetrics(m)
	s.Publish(Event{Text: "first", Kind: KindSpeech})
	s.Publish(Event{Text: "second", Kind: KindSpeech})
	s.Publish(Event{Text: "third", Kind: KindSpeech})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var dropped int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "chavr.events.dropped" {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("chavr.events.dropped data = %T, want Sum[int64]", met.Data)
			}
			dropped = 0
			for _, dp := range sum.DataPoints {
				dropped += dp.Value
			}
		}
	}
	if dropped != 2 {
		t.Fatalf("chavr.events.dropped = %d, want 2 evictions", dropped)
	}
}
