package ctxutil

import (
	"context"
	"reflect"
	"testing"
)

func TestLogFields(t *testing.T) {
	if got := LogFields(context.Background()); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}

	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	ctx = WithRequestData(ctx, &RequestData{UserID: "u1"})

	want := []interface{}{"trace_id", "t1", "request_id", "r1", "user_id", "u1"}
	if got := LogFields(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if UserID(ctx) != "u1" {
		t.Fatalf("user id not propagated")
	}
}
