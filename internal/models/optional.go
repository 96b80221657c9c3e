package models

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field (Set == false) from an
// explicit null (Set == true, Value == nil).
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Some builds a set OptionalString.
func Some(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// Null builds an explicit null.
func Null() OptionalString {
	return OptionalString{Set: true}
}
