package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// KeyField is one entry of an index or shard key specification: a field
// name and a direction (1 / -1) or a special index type ("hashed",
// "text", "2dsphere").
type KeyField struct {
	Field string
	Value interface{}
}

// KeySpec is an ordered key specification. Order is significant for
// compound indexes, so the JSON representation is produced and consumed
// manually instead of going through a map.
type KeySpec []KeyField

// MarshalJSON renders the conventional object form, e.g.
// {"email":1,"location":"2dsphere"}, preserving field order.
func (k KeySpec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Field)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form back, keeping document order.
func (k *KeySpec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("key spec must be a JSON object, got %v", tok)
	}

	spec := KeySpec{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		field := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		value, err := normalizeKeyValue(field, valTok)
		if err != nil {
			return err
		}
		spec = append(spec, KeyField{Field: field, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*k = spec
	return nil
}

func normalizeKeyValue(field string, tok json.Token) (interface{}, error) {
	switch v := tok.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			// Servers report float directions for legacy indexes.
			f, ferr := v.Float64()
			if ferr != nil {
				return nil, fmt.Errorf("key %q has non-numeric direction %q", field, v.String())
			}
			return int32(f), nil
		}
		return int32(n), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("key %q has unsupported value %v", field, tok)
	}
}

// FromBSON converts an ordered BSON document, as returned by the driver
// for index keys and shard keys, into a KeySpec.
func FromBSON(doc bson.D) KeySpec {
	spec := make(KeySpec, 0, len(doc))
	for _, elem := range doc {
		var value interface{}
		switch v := elem.Value.(type) {
		case int32:
			value = v
		case int64:
			value = int32(v)
		case float64:
			value = int32(v)
		case string:
			value = v
		default:
			value = fmt.Sprintf("%v", v)
		}
		spec = append(spec, KeyField{Field: elem.Key, Value: value})
	}
	return spec
}

// ToBSON converts the spec back to an ordered BSON document.
func (k KeySpec) ToBSON() bson.D {
	doc := make(bson.D, 0, len(k))
	for _, f := range k {
		doc = append(doc, bson.E{Key: f.Field, Value: f.Value})
	}
	return doc
}

// Literal renders the spec as mongosh source text, e.g.
// { "email": 1, "location": "2dsphere" }.
func (k KeySpec) Literal() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for i, f := range k {
		if i > 0 {
			sb.WriteString(", ")
		}
		name, _ := json.Marshal(f.Field)
		value, _ := json.Marshal(f.Value)
		sb.Write(name)
		sb.WriteString(": ")
		sb.Write(value)
	}
	sb.WriteString(" }")
	return sb.String()
}

// Equal reports whether two specs have the same fields, values and order.
func (k KeySpec) Equal(other KeySpec) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i].Field != other[i].Field || k[i].Value != other[i].Value {
			return false
		}
	}
	return true
}
