package statusrpc

import (
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/brewco/cafe/internal/model"
)

func TestStatusStructRoundTrip(t *testing.T) {
	in := &model.ShopStatus{ID: 1, IsOpen: true, UpdatedAt: time.Date(2026, 3, 14, 9, 0, 0, 123, time.UTC)}
	got, err := StatusFromStruct(StatusToStruct(in))
	if err != nil {
		t.Fatalf("StatusFromStruct: %v", err)
	}
	if got.ID != in.ID || got.IsOpen != in.IsOpen || !got.UpdatedAt.Equal(in.UpdatedAt) {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestStatusFromStruct_Rejects(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fields map[string]any
	}{
		{"missing id", map[string]any{"is_open": true}},
		{"fractional id", map[string]any{"id": 1.5, "is_open": true}},
		{"string is_open", map[string]any{"id": 1, "is_open": "yes"}},
		{"bad timestamp", map[string]any{"id": 1, "is_open": false, "updated_at": "yesterday"}},
	} {
		s, err := structpb.NewStruct(tc.fields)
		if err != nil {
			t.Fatalf("%s: NewStruct: %v", tc.name, err)
		}
		if _, err := StatusFromStruct(s); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
	if _, err := StatusFromStruct(nil); err == nil {
		t.Error("nil message: expected error")
	}
}

func TestParseSetStatusRequest(t *testing.T) {
	args, err := ParseSetStatusRequest(SetStatusRequest(7, false, "ana"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if args.ID != 7 || args.IsOpen == nil || *args.IsOpen || args.Actor != "ana" {
		t.Fatalf("got %+v", args)
	}

	args, err = ParseSetStatusRequest(SetStatusRequest(0, true, ""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if args.ID != 0 || args.IsOpen == nil || !*args.IsOpen {
		t.Fatalf("got %+v", args)
	}

	args, err = ParseSetStatusRequest(&structpb.Struct{})
	if err != nil || args.IsOpen != nil {
		t.Fatalf("empty request: args=%+v err=%v", args, err)
	}

	bad, _ := structpb.NewStruct(map[string]any{"is_open": 1})
	if _, err := ParseSetStatusRequest(bad); err == nil {
		t.Fatal("expected error for non-bool is_open")
	}
}
