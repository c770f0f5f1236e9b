// Package codec provides the serializers a queue uses to turn values into
// message payloads and back.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"strings"
)

// Serializer converts between values and payload bytes. Unmarshal decodes
// into v, which must be a non-nil pointer.
type Serializer interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Gob encodes values with encoding/gob. Each payload is self-describing so
// any process holding the same Go types can decode it.
type Gob struct{}

func (Gob) Name() string { return "gob" }

func (Gob) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (Gob) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}
	return nil
}

// JSON encodes values as compact JSON documents.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// Raw passes byte payloads through untouched. It accepts []byte, string and
// *[]byte on Marshal and decodes into *[]byte or *string.
type Raw struct{}

func (Raw) Name() string { return "raw" }

func (Raw) Marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case *[]byte:
		if val == nil {
			return nil, nil
		}
		return *val, nil
	case string:
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("raw encode: unsupported type %T", v)
	}
}

func (Raw) Unmarshal(data []byte, v any) error {
	switch dst := v.(type) {
	case *[]byte:
		*dst = append((*dst)[:0], data...)
		return nil
	case *string:
		*dst = string(data)
		return nil
	default:
		return fmt.Errorf("raw decode: unsupported type %T", v)
	}
}

// ByName resolves a serializer from its configured name. An empty name
// selects Gob.
func ByName(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gob":
		return Gob{}, nil
	case "json":
		return JSON{}, nil
	case "raw":
		return Raw{}, nil
	default:
		return nil, fmt.Errorf("codec: unsupported value %q", name)
	}
}

// Names lists the supported serializer names.
func Names() []string {
	return []string{"gob", "json", "raw"}
}
