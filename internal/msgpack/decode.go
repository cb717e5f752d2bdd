// Package msgpack provides MessagePack encoding/decoding for DoAction
// payloads and search page tokens.
//
// Struct fields without a msgpack tag fall back to their json tag, so the
// same request types serve the JSON and MessagePack wire forms.
package msgpack

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const fallbackTag = "json"

// RawMessage is a MessagePack value left undecoded, for fields whose
// shape is parsed by the JSON wire parsers.
type RawMessage = msgpack.RawMessage

// Decode deserializes MessagePack data into a Go value.
// The v parameter should be a pointer to the target structure.
//
// Example:
//
//	type SuggestParams struct {
//	    Resource string `msgpack:"resource"`
//	    Hint     string `msgpack:"hint"`
//	}
//
//	var params SuggestParams
//	err := msgpack.Decode(data, &params)
func Decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(fallbackTag)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	return nil
}

// Encode serializes a Go value into MessagePack format.
// Returns the serialized bytes or error.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(fallbackTag)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON re-encodes a MessagePack value as JSON so that payloads arriving
// in either encoding go through the same parser. Empty or nil input yields
// nil.
func ToJSON(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	v, err := msgpack.NewDecoder(bytes.NewReader(data)).DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert MessagePack to JSON: %w", err)
	}
	return out, nil
}

// DecodeMap deserializes MessagePack data into a map[string]interface{}.
// This is useful when the structure is not known at compile time, e.g.
// resource documents sent by clients.
func DecodeMap(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty MessagePack data")
	}

	var result map[string]interface{}
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode MessagePack map: %w", err)
	}

	return result, nil
}
