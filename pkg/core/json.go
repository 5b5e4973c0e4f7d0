package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Error codes returned by the JSON helpers
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeTrailingData = "TRAILING_DATA"
)

// JSONEncode marshals v. A nil v is rejected rather than encoded as null.
func JSONEncode(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, &Error{Code: CodeInvalidInput, Message: "cannot encode nil value"}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode failed: %w", err)
	}
	return data, nil
}

// JSONDecode unmarshals data into v. Empty data and a nil target are
// INVALID_INPUT errors so handlers can tell them apart from bad syntax.
func JSONDecode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return &Error{Code: CodeInvalidInput, Message: "cannot decode empty data"}
	}
	if v == nil {
		return &Error{Code: CodeInvalidInput, Message: "cannot decode into nil value"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json decode failed: %w", err)
	}
	return nil
}

// JSONDecodeDocument decodes one JSON value into generic maps, slices and
// json.Number, the form schema validators expect. Integers keep full precision.
func JSONDecodeDocument(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &Error{Code: CodeInvalidInput, Message: "cannot decode empty data"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("json decode failed: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &Error{Code: CodeTrailingData, Message: "unexpected data after JSON value"}
	}
	return doc, nil
}
