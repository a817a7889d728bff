package bridge

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wippyai/windowless"
	"github.com/wippyai/windowless/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnPendingEvent(e Event) {
	o.events = append(o.events, e)
}

func TestPendingTable_Basic(t *testing.T) {
	table := NewPendingTable()

	if err := table.Track(7, "app://data.json"); err != nil {
		t.Fatal(err)
	}
	if err := table.Track(7, "app://other"); err == nil {
		t.Fatal("duplicate Track succeeded")
	}
	if table.Len() != 1 {
		t.Fatalf("Len = %d", table.Len())
	}
	if req, ok := table.Get(7); !ok || req.URI != "app://data.json" || req.Issued.IsZero() {
		t.Fatalf("Get = %+v, %v", req, ok)
	}

	req, err := table.Resolve(7)
	if err != nil {
		t.Fatal(err)
	}
	if req.ID != 7 || req.URI != "app://data.json" {
		t.Errorf("Resolve = %+v", req)
	}

	_, err = table.Resolve(7)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseComplete, Kind: errors.KindUnknownRequest}) {
		t.Errorf("second Resolve = %v", err)
	}
	if _, err := table.Cancel(7); !errors.IsMisuse(err) {
		t.Errorf("Cancel after Resolve = %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len = %d", table.Len())
	}
}

func TestPendingTable_Observer(t *testing.T) {
	table := NewPendingTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	_ = table.Track(1, "a")
	_ = table.Track(2, "b")
	_, _ = table.Resolve(1)
	_, _ = table.Cancel(2)
	_, _ = table.Resolve(3)

	want := []EventType{EventTracked, EventTracked, EventCompleted, EventCancelled}
	got := make([]EventType, len(obs.events))
	for i, e := range obs.events {
		got[i] = e.Type
	}
	if !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	table.Unsubscribe(obs)
	_ = table.Track(4, "d")
	if len(obs.events) != len(want) {
		t.Error("unsubscribed observer still notified")
	}
}

func TestPendingTable_Clear(t *testing.T) {
	table := NewPendingTable()
	var cancelled []windowless.RequestID
	table.Subscribe(ObserverFunc(func(e Event) {
		if e.Type == EventCancelled {
			cancelled = append(cancelled, e.Request.ID)
		}
	}))
	for _, id := range []windowless.RequestID{3, 1, 2} {
		_ = table.Track(id, "x")
	}
	if got := table.IDs(); !slices.Equal(got, []windowless.RequestID{1, 2, 3}) {
		t.Errorf("IDs = %v", got)
	}
	table.Clear()
	if table.Len() != 0 || !slices.Equal(cancelled, []windowless.RequestID{1, 2, 3}) {
		t.Errorf("after Clear: len %d, cancelled %v", table.Len(), cancelled)
	}
}

func TestPendingTable_ConcurrentResolve(t *testing.T) {
	table := NewPendingTable()
	_ = table.Track(42, "slow://resource")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := table.Resolve(42); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("%d goroutines resolved the same request", wins.Load())
	}
}
