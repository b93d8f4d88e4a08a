package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SpecValue holds a spec field value of any supported field type. Exactly one
// of the members is set; which one is meaningful depends on the field schema.
type SpecValue struct {
	Number *float64
	Bool   *bool
	Text   *string
	List   []string
}

func NumberValue(v float64) SpecValue { return SpecValue{Number: &v} }
func BoolValue(v bool) SpecValue      { return SpecValue{Bool: &v} }
func TextValue(v string) SpecValue    { return SpecValue{Text: &v} }
func ListValue(v ...string) SpecValue { return SpecValue{List: v} }

// AsNumber returns the numeric value, parsing numeric text values.
func (v SpecValue) AsNumber() (float64, bool) {
	if v.Number != nil {
		return *v.Number, true
	}
	if v.Text != nil {
		if f, err := strconv.ParseFloat(*v.Text, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (v SpecValue) AsBool() (bool, bool) {
	if v.Bool != nil {
		return *v.Bool, true
	}
	return false, false
}

func (v SpecValue) AsText() (string, bool) {
	if v.Text != nil {
		return *v.Text, true
	}
	return "", false
}

// AsList returns the value as a list; a scalar text value becomes a one-element list.
func (v SpecValue) AsList() ([]string, bool) {
	if v.List != nil {
		return v.List, true
	}
	if v.Text != nil {
		return []string{*v.Text}, true
	}
	return nil, false
}

// IsZero reports whether no member is set.
func (v SpecValue) IsZero() bool {
	return v.Number == nil && v.Bool == nil && v.Text == nil && v.List == nil
}

func (v SpecValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Bool != nil:
		return json.Marshal(*v.Bool)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	case v.List != nil:
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

func (v *SpecValue) UnmarshalJSON(data []byte) error {
	*v = SpecValue{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case nil:
		return nil
	case float64:
		v.Number = &val
	case bool:
		v.Bool = &val
	case string:
		v.Text = &val
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			switch s := item.(type) {
			case string:
				list = append(list, s)
			case float64:
				list = append(list, strconv.FormatFloat(s, 'f', -1, 64))
			default:
				return fmt.Errorf("unsupported spec list element type %T", item)
			}
		}
		v.List = list
	default:
		return fmt.Errorf("unsupported spec value type %T", raw)
	}
	return nil
}
