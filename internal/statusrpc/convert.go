package statusrpc

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/brewco/cafe/internal/model"
)

// Struct field names. They match the JSON names used by the HTTP API.
const (
	FieldID          = "id"
	FieldIsOpen      = "is_open"
	FieldUpdatedAt   = "updated_at"
	FieldWithinHours = "within_hours"
	FieldActor       = "actor"
)

// StatusToStruct encodes a status row as a Struct message.
func StatusToStruct(st *model.ShopStatus) *structpb.Struct {
	if st == nil {
		return nil
	}
	fields := map[string]*structpb.Value{
		FieldID:     structpb.NewNumberValue(float64(st.ID)),
		FieldIsOpen: structpb.NewBoolValue(st.IsOpen),
	}
	if !st.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt] = structpb.NewStringValue(st.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	return &structpb.Struct{Fields: fields}
}

// StatusFromStruct decodes a Struct produced by StatusToStruct.
func StatusFromStruct(s *structpb.Struct) (*model.ShopStatus, error) {
	if s == nil {
		return nil, fmt.Errorf("status message is empty")
	}
	id, err := numberField(s, FieldID)
	if err != nil {
		return nil, err
	}
	isOpen, ok := s.Fields[FieldIsOpen].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, fmt.Errorf("status message: %s must be a bool", FieldIsOpen)
	}
	st := &model.ShopStatus{ID: id, IsOpen: isOpen.BoolValue}
	if v, ok := s.Fields[FieldUpdatedAt]; ok {
		ts, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("status message: %s: %w", FieldUpdatedAt, err)
		}
		st.UpdatedAt = ts
	}
	return st, nil
}

// SetStatusRequest builds the SetStatus request message. A zero id asks the
// server to use its configured status row.
func SetStatusRequest(id int64, isOpen bool, actor string) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldIsOpen: structpb.NewBoolValue(isOpen),
	}
	if id != 0 {
		fields[FieldID] = structpb.NewNumberValue(float64(id))
	}
	if actor != "" {
		fields[FieldActor] = structpb.NewStringValue(actor)
	}
	return &structpb.Struct{Fields: fields}
}

// SetStatusArgs is the decoded form of a SetStatus request.
type SetStatusArgs struct {
	ID     int64 // zero when omitted
	IsOpen *bool // nil when omitted
	Actor  string
}

// ParseSetStatusRequest decodes a SetStatus request. Missing fields are left
// zero; type mismatches are errors.
func ParseSetStatusRequest(s *structpb.Struct) (SetStatusArgs, error) {
	var args SetStatusArgs
	if s == nil {
		return args, nil
	}
	if _, ok := s.Fields[FieldID]; ok {
		id, err := numberField(s, FieldID)
		if err != nil {
			return args, err
		}
		args.ID = id
	}
	if v, ok := s.Fields[FieldIsOpen]; ok {
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return args, fmt.Errorf("%s must be a bool", FieldIsOpen)
		}
		args.IsOpen = &b.BoolValue
	}
	if v, ok := s.Fields[FieldActor]; ok {
		args.Actor = v.GetStringValue()
	}
	return args, nil
}

func numberField(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.Fields[name].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	n := v.NumberValue
	if n != float64(int64(n)) {
		return 0, fmt.Errorf("%s must be an integer, got %v", name, n)
	}
	return int64(n), nil
}
