package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/parkcache/record"
)

// Protobuf encodes a concrete proto message type.
type Protobuf[T proto.Message] struct {
	new func() T // constructor, e.g. func() *structpb.ListValue { return &structpb.ListValue{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// Records stores a record list as a google.protobuf.ListValue of Structs.
// Numbers come back as float64, the same as with JSON.
type Records struct {
	pb Protobuf[*structpb.ListValue]
}

var _ Codec[[]record.Record] = Records{}

func NewRecords() Records {
	return Records{pb: NewProtobuf(func() *structpb.ListValue { return &structpb.ListValue{} })}
}

func (c Records) Encode(rs []record.Record) ([]byte, error) {
	lv := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(rs))}
	for i, r := range rs {
		s, err := structpb.NewStruct(map[string]any(r))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		lv.Values = append(lv.Values, structpb.NewStructValue(s))
	}
	return c.pb.Encode(lv)
}

func (c Records) Decode(b []byte) ([]record.Record, error) {
	if c.pb.new == nil {
		c = NewRecords()
	}
	lv, err := c.pb.Decode(b)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, len(lv.GetValues()))
	for i, v := range lv.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("record %d: not a struct", i)
		}
		out = append(out, record.Record(s.AsMap()))
	}
	return out, nil
}
