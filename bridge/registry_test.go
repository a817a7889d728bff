package bridge

import (
	"slices"
	"sync"
	"testing"

	"github.com/wippyai/windowless/engine"
)

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	if r.Snapshot().DataLoad != nil {
		t.Fatal("new registry has a data load handler")
	}

	var calls []string
	first := DataLoadFunc(func(LoadRequest, *Future) (LoadOutcome, error) {
		calls = append(calls, "first")
		return OutcomeDefault, nil
	})
	second := DataLoadFunc(func(LoadRequest, *Future) (LoadOutcome, error) {
		calls = append(calls, "second")
		return OutcomeDefault, nil
	})

	r.SetDataLoad(first)
	old := r.Snapshot()
	r.SetDataLoad(second)

	_, _ = r.Snapshot().DataLoad.OnDataLoad(LoadRequest{}, &Future{})
	_, _ = old.DataLoad.OnDataLoad(LoadRequest{}, &Future{})
	if !slices.Equal(calls, []string{"second", "first"}) {
		t.Errorf("calls = %v", calls)
	}

	r.SetDataLoad(nil)
	if r.Snapshot().DataLoad != nil {
		t.Error("SetDataLoad(nil) kept handler")
	}
}

func TestRegistryDraw(t *testing.T) {
	r := NewRegistry()
	h := DrawFunc(func(engine.Rect, engine.DrawLayer) (bool, error) { return true, nil })

	if !r.SetDraw("chart", h) {
		t.Error("first SetDraw not reported as added")
	}
	if r.SetDraw("chart", h) {
		t.Error("rebinding reported as added")
	}
	r.SetDraw("gauge", h)

	snap := r.Snapshot()
	r.SetDraw("chart", nil)
	if _, ok := r.Draw("chart"); ok {
		t.Error("chart still bound")
	}
	if _, ok := snap.Draw["chart"]; !ok {
		t.Error("published snapshot was modified")
	}
	if got := r.Behaviors(); !slices.Equal(got, []string{"gauge"}) {
		t.Errorf("Behaviors = %v", got)
	}
}

func TestRegistrySetFromInsideHandler(t *testing.T) {
	r := NewRegistry()
	var calls []string
	replacement := NativeInvocationFunc(func(string, []byte, *Future) (bool, error) {
		calls = append(calls, "replacement")
		return false, nil
	})
	r.SetNativeInvocation(NativeInvocationFunc(func(string, []byte, *Future) (bool, error) {
		calls = append(calls, "original")
		r.SetNativeInvocation(replacement)
		return false, nil
	}))

	for i := 0; i < 2; i++ {
		_, _ = r.Snapshot().Native.OnNativeInvocation("f", nil, &Future{})
	}
	if !slices.Equal(calls, []string{"original", "replacement"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestRegistryConcurrentWriters(t *testing.T) {
	r := NewRegistry()
	h := DrawFunc(func(engine.Rect, engine.DrawLayer) (bool, error) { return false, nil })

	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			r.SetDraw(name, h)
			_ = r.Snapshot()
		}(name)
	}
	wg.Wait()

	if got := r.Behaviors(); !slices.Equal(got, names) {
		t.Errorf("Behaviors = %v", got)
	}
}
