package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/userassets/internal/events"
)

func TestWatchLoop_PrintsUntilClosed(t *testing.T) {
	ch := make(chan events.Message, 2)
	ch <- events.Message{Topic: events.TopicAssetSet, Data: []byte(`{"asset":{"asset_name":"theme"}}`)}
	ch <- events.Message{Topic: events.TopicOwnerCleared, Data: []byte(`{"owner_id":1,"removed":10}`)}
	close(ch)

	var buf bytes.Buffer
	if err := watchLoop(context.Background(), ch, &buf); err != nil {
		t.Fatalf("watchLoop: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], events.TopicAssetSet) || !strings.Contains(lines[0], `"theme"`) {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestWatchLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, make(chan events.Message), &bytes.Buffer{}) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchLoop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchLoop did not return after cancel")
	}
}

func TestWriteEvent_JSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	var buf bytes.Buffer
	writeEvent(&buf, events.Message{Topic: events.TopicAssetDeleted, Data: []byte(`{"owner_id":1,"asset_name":"email"}`)}, time.Now())
	want := `{"topic":"assets.asset.deleted","event":{"owner_id":1,"asset_name":"email"}}` + "\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
