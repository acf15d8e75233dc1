package respondsdk

import (
	"strings"
	"testing"
)

func TestEventPipeline_OnionOrder(t *testing.T) {
	p := NewEventPipeline()
	var trace []string
	p.Use(func(ctx *EventContext, next NextFunc) {
		trace = append(trace, "a-before")
		next()
		trace = append(trace, "a-after")
	})
	p.Use(func(ctx *EventContext, next NextFunc) {
		trace = append(trace, "b-before")
		next()
		trace = append(trace, "b-after")
	})

	p.Execute(&EventContext{}, func() { trace = append(trace, "core") })

	want := []string{"a-before", "b-before", "core", "b-after", "a-after"}
	if len(trace) != len(want) {
		t.Fatalf("expected %v, got %v", want, trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, trace)
		}
	}
}

func TestEventPipeline_ExtraFlowsThroughLayers(t *testing.T) {
	p := NewEventPipeline()
	p.Use(func(ctx *EventContext, next NextFunc) {
		ctx.Extra["source"] = "gateway"
		next()
	})
	var inner interface{}
	p.Use(func(ctx *EventContext, next NextFunc) {
		inner = ctx.Extra["source"]
		next()
	})

	ctx := &EventContext{Extra: make(map[string]interface{})}
	p.Execute(ctx, func() {})

	if inner != "gateway" {
		t.Fatalf("inner layer must see data attached upstream, got %v", inner)
	}
	if ctx.Extra["source"] != "gateway" {
		t.Fatal("attached data must survive the pipeline for the caller")
	}
}

func TestEventPipeline_EmptyRunsCore(t *testing.T) {
	var ran bool
	NewEventPipeline().Execute(&EventContext{}, func() { ran = true })
	if !ran {
		t.Fatal("core must run with no middleware")
	}
}

func TestOrchestrator_MiddlewareIntercepts(t *testing.T) {
	o := newTestOrchestrator(alwaysRespondConfig())
	o.Use(func(ctx *EventContext, next NextFunc) {
		if strings.HasPrefix(ctx.Event.Text, "/") {
			return // commands never reach the engine
		}
		next()
	})

	rec, err := o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "/start", Timestamp: eventTime})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ShouldRespond || rec.BlockReason != "pipeline-drop" {
		t.Fatalf("command must be intercepted, got %+v", rec)
	}

	// The engine saw nothing: no profile was created.
	p, _ := o.Profiles().GetOrCreate("u1", "", o.Now())
	if p.InteractionCount != 0 {
		t.Fatalf("intercepted event must not record an interaction, got %d", p.InteractionCount)
	}

	s := o.Stats()
	if s.EventsSeen != 1 || s.ResponsesSuppressed != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestOrchestrator_MiddlewareRewritesEvent(t *testing.T) {
	o := newTestOrchestrator(alwaysRespondConfig())
	o.Use(func(ctx *EventContext, next NextFunc) {
		ctx.Event.Text = strings.TrimSpace(ctx.Event.Text)
		next()
	})

	rec, err := o.HandleMessage(MessageEvent{ChatID: "c1", UserID: "u1", Text: "  hi  ", Timestamp: eventTime})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.ShouldRespond {
		t.Fatalf("rewritten event must flow through, got %+v", rec)
	}
}
