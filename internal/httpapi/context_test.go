package httpapi

import (
	"context"
	"testing"
	"time"
)

func TestJoinContexts_CancelA(t *testing.T) {
	a, cancelA := context.WithCancel(context.Background())
	joined, cancel := joinContexts(a, context.Background())
	defer cancel()
	cancelA()
	select {
	case <-joined.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled")
	}
}

func TestJoinContexts_CancelB(t *testing.T) {
	b, cancelB := context.WithCancel(context.Background())
	joined, cancel := joinContexts(context.Background(), b)
	defer cancel()
	cancelB()
	select {
	case <-joined.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled")
	}
}

func TestSetBaseContextNilResets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	cancel()
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil {
		t.Fatal("base context should reset to Background")
	}
}
