package rexster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// document is a decoded response body.
type document map[string]any

// decodeDocument parses a JSON object. Numbers are normalised to int64 when
// integral and float64 otherwise.
func decodeDocument(body []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return document(normalize(raw).(map[string]any)), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	default:
		return v
	}
}

// results returns the `results` object, or nil when it is missing or empty.
func (d document) results() map[string]any {
	m, _ := d["results"].(map[string]any)
	if len(m) == 0 {
		return nil
	}
	return m
}

// resultList returns the `results` array. Non-object items are skipped.
func (d document) resultList() ([]map[string]any, error) {
	raw, ok := d["results"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: results is %T, not a list", ErrDecode, raw)
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d document) message() string {
	s, _ := d["message"].(string)
	return s
}

func (d document) str(key string) string {
	return stringify(d[key])
}

// responseError builds the error for a non-success reply, carrying the
// server message when the body holds one.
func responseError(resp *Response) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return &ResponseError{StatusCode: resp.StatusCode}
	}
	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	return &ResponseError{StatusCode: resp.StatusCode, Message: doc.message()}
}

// stringify renders identifiers and other scalars as the server spells them.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// encodeValue renders a property value in Rexster's form data-type notation,
// so that typed values survive the round trip through a form body. Strings
// are sent as is.
func encodeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return "(boolean," + strconv.FormatBool(t) + ")"
	case int:
		return "(integer," + strconv.Itoa(t) + ")"
	case int8, int16, int32, uint8, uint16:
		return fmt.Sprintf("(integer,%d)", t)
	case int64, uint32, uint, uint64:
		return fmt.Sprintf("(long,%d)", t)
	case float32:
		return "(float," + strconv.FormatFloat(float64(t), 'g', -1, 32) + ")"
	case float64:
		return "(double," + strconv.FormatFloat(t, 'g', -1, 64) + ")"
	default:
		return fmt.Sprint(t)
	}
}

// echoValue returns v the way the server sends it back once encodeValue has
// written it: integers as int64, floats as float64, unknown types as the
// string they were sent as.
func echoValue(v any) any {
	switch t := v.(type) {
	case string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(t), 'g', -1, 32), 64)
		return f
	default:
		return fmt.Sprint(t)
	}
}

// encodeList renders a list parameter as Rexster expects it: [a,b,c].
func encodeList(items []string) string {
	return "[" + strings.Join(items, ",") + "]"
}
