package normalization

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload is a webhook body with snake_case keys. Senders differ in casing and
// nesting, so lookups accept several aliases and the first non-empty wins.
type Payload map[string]any

// NormalizeKeys returns a deep copy of m with every map key in snake_case.
func NormalizeKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[SnakeCase(k)] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return NormalizeKeys(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalizeValue(t[i])
		}
		return out
	default:
		return v
	}
}

// NewPayload normalizes keys and lifts the nested sections used by the voice
// agent (data, analysis.data_collection_results, dynamic variables, phone call
// metadata) to the top level. Top-level keys are never overwritten.
func NewPayload(raw map[string]any) Payload {
	p := Payload(NormalizeKeys(raw))
	if p == nil {
		return Payload{}
	}
	if data, ok := p["data"].(map[string]any); ok {
		p.lift(data)
	}
	if analysis, ok := p["analysis"].(map[string]any); ok {
		if results, ok := analysis["data_collection_results"].(map[string]any); ok {
			p.lift(unwrapValues(results))
		}
		if summary, ok := analysis["transcript_summary"]; ok {
			p.setDefault("call_summary", summary)
		}
		if status, ok := analysis["call_successful"]; ok {
			p.setDefault("call_successful", status)
		}
	}
	if init, ok := p["conversation_initiation_client_data"].(map[string]any); ok {
		if vars, ok := init["dynamic_variables"].(map[string]any); ok {
			p.lift(vars)
		}
	}
	if meta, ok := p["metadata"].(map[string]any); ok {
		if call, ok := meta["phone_call"].(map[string]any); ok {
			if num, ok := call["external_number"]; ok {
				p.setDefault("phone", num)
			}
			if sid, ok := call["call_sid"]; ok {
				p.setDefault("call_id", sid)
			}
		}
		if secs, ok := meta["call_duration_secs"]; ok {
			p.setDefault("duration", secs)
		}
	}
	return p
}

func (p Payload) lift(m map[string]any) {
	for k, v := range m {
		p.setDefault(k, v)
	}
}

func (p Payload) setDefault(key string, v any) {
	if isEmpty(v) {
		return
	}
	if cur, ok := p[key]; ok && !isEmpty(cur) {
		return
	}
	p[key] = v
}

// data_collection_results entries look like {"value": x, "rationale": ...}.
func unwrapValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if inner, ok := v.(map[string]any); ok {
			if val, ok := inner["value"]; ok {
				out[k] = val
				continue
			}
		}
		out[k] = v
	}
	return out
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Has reports whether any alias carries a non-empty value.
func (p Payload) Has(keys ...string) bool {
	for _, k := range keys {
		if v, ok := p[k]; ok && !isEmpty(v) {
			return true
		}
	}
	return false
}

func (p Payload) Str(keys ...string) string {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || isEmpty(v) {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			return t.String()
		case bool:
			return strconv.FormatBool(t)
		case map[string]any, []any:
			b, err := json.Marshal(t)
			if err == nil {
				return string(b)
			}
		default:
			return strings.TrimSpace(fmt.Sprint(t))
		}
	}
	return ""
}

// Float returns the first alias that parses as a number.
func (p Payload) Float(keys ...string) (float64, bool) {
	for _, k := range keys {
		switch t := p[k].(type) {
		case float64:
			return t, true
		case int:
			return float64(t), true
		case int64:
			return float64(t), true
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return f, true
			}
		case string:
			s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$"))
			if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (p Payload) Int(keys ...string) (int, bool) {
	f, ok := p.Float(keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Raw returns the payload as JSON for audit storage.
func (p Payload) Raw() []byte {
	b, err := json.Marshal(map[string]any(p))
	if err != nil {
		return []byte("{}")
	}
	return b
}
