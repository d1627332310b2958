package sink

import (
	"fmt"

	"github.com/bytedance/sonic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/notifier/internal/core/domain"
)

// Encoder turns a notification into a message payload.
type Encoder func(n domain.Notification) ([]byte, error)

// NewEncoder returns the encoder for an encoding name.
func NewEncoder(encoding string) (Encoder, error) {
	switch encoding {
	case "", EncodingJSON:
		return encodeJSON, nil
	case EncodingProto:
		return encodeProto, nil
	default:
		return nil, fmt.Errorf("unknown sink encoding %q", encoding)
	}
}

func encodeJSON(n domain.Notification) ([]byte, error) {
	return sonic.Marshal(n)
}

// encodeProto emits a google.protobuf.Struct with the same field names as the JSON form.
func encodeProto(n domain.Notification) ([]byte, error) {
	fields := map[string]any{
		"id":      n.ID,
		"account": n.Account,
		"title":   n.Title,
		"message": n.Message,
	}
	if n.URL != "" {
		fields["url"] = n.URL
	}
	if len(n.Context) > 0 {
		ctx := make(map[string]any, len(n.Context))
		for k, v := range n.Context {
			ctx[k] = v
		}
		fields["context"] = ctx
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(s)
}
