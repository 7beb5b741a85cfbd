// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/hud/internal/conversation"
	"github.com/jeranaias/hud/internal/events"
	"github.com/jeranaias/hud/internal/provider"
)

// collectSink gathers events in order. Stream is synchronous, so no
// locking is needed.
type collectSink struct {
	events []events.Event
}

func (c *collectSink) Emit(e events.Event) {
	c.events = append(c.events, e)
}

// captureRecorder remembers the last recorded result.
type captureRecorder struct {
	results []Result
}

func (r *captureRecorder) Record(res Result) {
	r.results = append(r.results, res)
}

// newTestDriver wires a driver against a registry with "sonar" bound to an
// SSE adapter targeting the given base URL.
func newTestDriver(baseURL string, rec Recorder) (*Driver, *conversation.Store, *CancelFlag) {
	store := conversation.NewStore()
	reg := provider.NewRegistry()
	reg.Register("sonar", provider.NewSSEAdapter("perplexity", baseURL, provider.RoutePerplexity))

	flag := NewCancelFlag()
	driver := NewDriver(store, reg, flag, &Config{Recorder: rec})
	return driver, store, flag
}

func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			w.Write([]byte(line + "\n"))
		}
	}))
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestDriver_StreamCompletes(t *testing.T) {
	server := sseServer(t,
		`data: {"content":"Hel"}`,
		`data: {"content":"lo"}`,
		`data: [DONE]`,
	)
	defer server.Close()

	rec := &captureRecorder{}
	driver, store, _ := newTestDriver(server.URL, rec)
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "Hello", "sonar"); err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	// Emitted order: chunk("Hel"), chunk("lo"), done("Hello").
	want := []events.Event{
		{Kind: events.KindChunk, Text: "Hel"},
		{Kind: events.KindChunk, Text: "lo"},
		{Kind: events.KindDone, Text: "Hello"},
	}
	if len(sink.events) != len(want) {
		t.Fatalf("event count = %d, want %d: %+v", len(sink.events), len(want), sink.events)
	}
	for i, e := range want {
		if sink.events[i] != e {
			t.Errorf("event[%d] = %+v, want %+v", i, sink.events[i], e)
		}
	}

	history := store.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != conversation.RoleUser || history[0].Content != "Hello" {
		t.Errorf("history[0] = %+v", history[0])
	}
	if history[1].Role != conversation.RoleAssistant || history[1].Content != "Hello" {
		t.Errorf("history[1] = %+v", history[1])
	}

	if len(rec.results) != 1 || rec.results[0].State != StateCompleted {
		t.Errorf("recorded results = %+v", rec.results)
	}
	if rec.results[0].Chunks != 2 {
		t.Errorf("recorded chunks = %d, want 2", rec.results[0].Chunks)
	}
}

func TestDriver_OllamaStreamCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"Hel","done":false}` + "\n"))
		w.Write([]byte(`{"response":"lo","done":true}` + "\n"))
		w.Write([]byte(`{"response":"IGNORED","done":false}` + "\n"))
	}))
	defer server.Close()

	store := conversation.NewStore()
	reg := provider.NewRegistry()
	reg.Register("llama3", provider.NewOllamaAdapter(server.URL))
	driver := NewDriver(store, reg, NewCancelFlag(), nil)
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "hi", "llama3"); err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	// The done=true line is terminal; the trailing line is never processed.
	last := sink.events[len(sink.events)-1]
	if last.Kind != events.KindDone || last.Text != "Hello" {
		t.Errorf("terminal event = %+v, want done 'Hello'", last)
	}
	if store.History()[1].Content != "Hello" {
		t.Errorf("assistant turn = %q, want 'Hello'", store.History()[1].Content)
	}
}

func TestDriver_GracefulEOFWithoutTerminal(t *testing.T) {
	// Connection closes with no [DONE]: treated as successful completion
	// with whatever accumulated.
	server := sseServer(t, `data: {"content":"partial"}`)
	defer server.Close()

	driver, store, _ := newTestDriver(server.URL, nil)
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "q", "sonar"); err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	last := sink.events[len(sink.events)-1]
	if last.Kind != events.KindDone || last.Text != "partial" {
		t.Errorf("terminal event = %+v", last)
	}
	if got := store.History()[1].Content; got != "partial" {
		t.Errorf("assistant turn = %q", got)
	}
}

func TestDriver_MalformedLinesSkipped(t *testing.T) {
	server := sseServer(t,
		`data: {broken`,
		`: comment`,
		`data: {"content":"ok"}`,
		`data: [DONE]`,
	)
	defer server.Close()

	driver, _, _ := newTestDriver(server.URL, nil)
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "q", "sonar"); err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("events = %+v, want one chunk and one done", sink.events)
	}
	if sink.events[0].Text != "ok" {
		t.Errorf("chunk = %+v", sink.events[0])
	}
}

// =============================================================================
// FAILURE PATHS
// =============================================================================

func TestDriver_UnsupportedModel(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	rec := &captureRecorder{}
	driver, store, _ := newTestDriver(server.URL, rec)
	sink := &collectSink{}

	err := driver.Stream(context.Background(), sink, "q", "gpt-9000")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnsupportedModel(err) {
		t.Errorf("error = %v, want unsupported model", err)
	}
	if requested {
		t.Error("no request may be issued for an unsupported model")
	}
	if len(sink.events) != 1 || sink.events[0].Kind != events.KindError {
		t.Errorf("events = %+v, want single error event", sink.events)
	}
	// The user turn stays committed for a retry.
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1 (user turn only)", store.Len())
	}
	if rec.results[0].State != StateFailed {
		t.Errorf("recorded state = %v", rec.results[0].State)
	}
}

func TestDriver_UpstreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	driver, store, _ := newTestDriver(server.URL, nil)
	sink := &collectSink{}

	err := driver.Stream(context.Background(), sink, "q", "sonar")
	if !IsUpstreamStatus(err) {
		t.Fatalf("error = %v, want upstream status error", err)
	}

	var streamErr *Error
	if !errors.As(err, &streamErr) {
		t.Fatal("error is not *Error")
	}
	if streamErr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d", streamErr.Status)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != events.KindError {
		t.Errorf("events = %+v", sink.events)
	}
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1", store.Len())
	}
}

func TestDriver_UpstreamPayloadError(t *testing.T) {
	server := sseServer(t,
		`data: {"content":"part"}`,
		`data: {"error":"boom"}`,
		`data: {"content":"never"}`,
	)
	defer server.Close()

	driver, store, _ := newTestDriver(server.URL, nil)
	sink := &collectSink{}

	err := driver.Stream(context.Background(), sink, "q", "sonar")
	if !IsUpstreamPayload(err) {
		t.Fatalf("error = %v, want upstream payload error", err)
	}

	// One chunk before the error, then the error event, nothing after.
	if len(sink.events) != 2 {
		t.Fatalf("events = %+v", sink.events)
	}
	if sink.events[1].Kind != events.KindError {
		t.Errorf("terminal event = %+v", sink.events[1])
	}

	// Partial content is discarded, not committed.
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1 (partial discarded)", store.Len())
	}
}

func TestDriver_TransportFailure(t *testing.T) {
	// Point at a closed server.
	server := sseServer(t)
	url := server.URL
	server.Close()

	driver, _, _ := newTestDriver(url, nil)
	sink := &collectSink{}

	err := driver.Stream(context.Background(), sink, "q", "sonar")
	if !IsTransport(err) {
		t.Fatalf("error = %v, want transport failure", err)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != events.KindError {
		t.Errorf("events = %+v", sink.events)
	}
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestDriver_CancelBeforeFirstChunk(t *testing.T) {
	flagCh := make(chan *CancelFlag, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set the flag while the stream is in flight, before any payload
		// line reaches the driver.
		flag := <-flagCh
		flag.Set()
		w.Write([]byte(`data: {"content":"late"}` + "\n"))
	}))
	defer server.Close()

	rec := &captureRecorder{}
	driver, store, flag := newTestDriver(server.URL, rec)
	flagCh <- flag
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "q", "sonar"); err != nil {
		t.Fatalf("Stream error: %v (cancellation is not a failure)", err)
	}

	if len(sink.events) != 1 || sink.events[0].Kind != events.KindCancelled {
		t.Fatalf("events = %+v, want single cancelled event", sink.events)
	}
	// No assistant message committed.
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1", store.Len())
	}
	if rec.results[0].State != StateCancelled {
		t.Errorf("recorded state = %v", rec.results[0].State)
	}
}

func TestDriver_CancelAfterCompletionHasNoEffect(t *testing.T) {
	server := sseServer(t, `data: {"content":"Hi"}`, `data: [DONE]`)
	defer server.Close()

	driver, store, flag := newTestDriver(server.URL, nil)
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "q", "sonar"); err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	before := store.History()

	// Setting the flag after completion changes nothing; it is only reset
	// at the start of the next invocation.
	flag.Set()
	after := store.History()
	if len(before) != len(after) {
		t.Error("store changed after post-completion cancel")
	}

	// Next invocation starts fresh.
	sink2 := &collectSink{}
	if err := driver.Stream(context.Background(), sink2, "again", "sonar"); err != nil {
		t.Fatalf("second Stream error: %v", err)
	}
	if sink2.events[len(sink2.events)-1].Kind != events.KindDone {
		t.Errorf("second stream should complete, events = %+v", sink2.events)
	}
}

// =============================================================================
// CONTEXTUAL PROMPT
// =============================================================================

func TestBuildContextualPrompt(t *testing.T) {
	if got := buildContextualPrompt("", "hi"); got != "hi" {
		t.Errorf("bare prompt = %q", got)
	}

	got := buildContextualPrompt("user: hi", "there")
	want := "Previous conversation:\nuser: hi\n\nUser: there"
	if got != want {
		t.Errorf("contextual prompt = %q, want %q", got, want)
	}
}

func TestDriver_SingleTerminalEvent(t *testing.T) {
	server := sseServer(t, `data: {"content":"x"}`, `data: [DONE]`, `data: [DONE]`)
	defer server.Close()

	driver, _, _ := newTestDriver(server.URL, nil)
	sink := &collectSink{}

	if err := driver.Stream(context.Background(), sink, "q", "sonar"); err != nil {
		t.Fatalf("Stream error: %v", err)
	}

	terminals := 0
	for _, e := range sink.events {
		if e.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want exactly 1", terminals)
	}
}
