package judge

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
	KindMapping
)

// Value is the closed set of runtime types normalized inputs are coerced
// into: null, boolean, integer, float, string, ordered sequence, and
// string-keyed mapping.
type Value struct {
	Kind     Kind
	Bool     bool
	Int      int64
	Float    float64
	Str      string
	Sequence []Value
	Mapping  map[string]Value
	// MappingOrder lists the mapping's keys. Keys decoded from a Go map come
	// in map iteration order, and Raw does not consult this field.
	MappingOrder []string
}

// MarshalJSON encodes a Value as the plain JSON value it represents —
// what callers expect in a response — rather than the tagged-union struct
// used internally.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// UnmarshalJSON decodes a plain JSON value into its normalized Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Normalize(raw)
	return nil
}

func NullValue() Value                { return Value{Kind: KindNull} }
func BoolValue(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value          { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value      { return Value{Kind: KindString, Str: s} }
func SequenceValue(v []Value) Value   { return Value{Kind: KindSequence, Sequence: v} }

func MappingValue(keys []string, m map[string]Value) Value {
	return Value{Kind: KindMapping, Mapping: m, MappingOrder: keys}
}

var (
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	floatPattern   = regexp.MustCompile(`^-?\d+\.\d+$`)
	// sentencePattern rejects comma splits that look like prose: a comma
	// followed by whitespace then a letter, e.g. "apples, bananas and pears".
	sentencePattern = regexp.MustCompile(`,\s+[A-Za-z]`)
)

// Normalize coerces a raw, dynamically-typed input into a Value. It is
// pure, total, and idempotent: Normalize(raw(Normalize(x))) == Normalize(x).
func Normalize(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(v)
	case int:
		return IntValue(int64(v))
	case int64:
		return IntValue(v)
	case float64:
		return FloatValue(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return IntValue(n)
		}
		f, _ := v.Float64()
		return FloatValue(f)
	case string:
		return normalizeString(v)
	case []any:
		seq := make([]Value, 0, len(v))
		for _, item := range v {
			seq = append(seq, Normalize(item))
		}
		return SequenceValue(seq)
	case map[string]any:
		return normalizeMap(v)
	case Value:
		// Already normalized: recursing keeps idempotency for sequences/mappings.
		return renormalizeValue(v)
	default:
		return StringValue(strings.TrimSpace(toString(v)))
	}
}

func renormalizeValue(v Value) Value {
	switch v.Kind {
	case KindSequence:
		seq := make([]Value, 0, len(v.Sequence))
		for _, item := range v.Sequence {
			seq = append(seq, renormalizeValue(item))
		}
		return SequenceValue(seq)
	case KindMapping:
		m := make(map[string]Value, len(v.Mapping))
		for k, val := range v.Mapping {
			m[k] = renormalizeValue(val)
		}
		return MappingValue(v.MappingOrder, m)
	default:
		return v
	}
}

func normalizeMap(raw map[string]any) Value {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	m := make(map[string]Value, len(raw))
	for k, v := range raw {
		m[k] = Normalize(v)
	}
	return MappingValue(keys, m)
}

func normalizeString(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StringValue("")
	}

	switch trimmed {
	case "true", "True":
		return BoolValue(true)
	case "false", "False":
		return BoolValue(false)
	case "null", "None":
		return NullValue()
	}

	if c := trimmed[0]; (c == '[' || c == '{' || c == '"') && json.Valid([]byte(trimmed)) {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err == nil {
			return Normalize(parsed)
		}
	}

	if integerPattern.MatchString(trimmed) {
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return IntValue(n)
		}
	}
	if floatPattern.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return FloatValue(f)
		}
	}

	if seq, ok := numericSplit(trimmed, ","); ok {
		return SequenceValue(seq)
	}
	if seq, ok := numericSplit(trimmed, " "); ok {
		return SequenceValue(seq)
	}

	if strings.Contains(trimmed, ",") && !sentencePattern.MatchString(trimmed) {
		parts := splitTrimmed(trimmed, ",")
		allNumeric := true
		seq := make([]Value, 0, len(parts))
		for _, part := range parts {
			if integerPattern.MatchString(part) {
				n, _ := strconv.ParseInt(part, 10, 64)
				seq = append(seq, IntValue(n))
				continue
			}
			if floatPattern.MatchString(part) {
				f, _ := strconv.ParseFloat(part, 64)
				seq = append(seq, FloatValue(f))
				continue
			}
			allNumeric = false
			seq = append(seq, StringValue(part))
		}
		_ = allNumeric
		return SequenceValue(seq)
	}

	return StringValue(trimmed)
}

// numericSplit splits raw on sep and returns a sequence of numbers only if
// every resulting part is purely numeric (after trimming).
func numericSplit(raw, sep string) ([]Value, bool) {
	if sep == " " && !strings.Contains(raw, " ") {
		return nil, false
	}
	if sep == "," && !strings.Contains(raw, ",") {
		return nil, false
	}

	var parts []string
	if sep == " " {
		parts = strings.Fields(raw)
	} else {
		parts = splitTrimmed(raw, sep)
	}
	if len(parts) < 2 {
		return nil, false
	}

	seq := make([]Value, 0, len(parts))
	for _, part := range parts {
		switch {
		case integerPattern.MatchString(part):
			n, _ := strconv.ParseInt(part, 10, 64)
			seq = append(seq, IntValue(n))
		case floatPattern.MatchString(part):
			f, _ := strconv.ParseFloat(part, 64)
			seq = append(seq, FloatValue(f))
		default:
			return nil, false
		}
	}
	return seq, true
}

func splitTrimmed(raw, sep string) []string {
	rawParts := strings.Split(raw, sep)
	parts := make([]string, 0, len(rawParts))
	for _, p := range rawParts {
		parts = append(parts, strings.TrimSpace(p))
	}
	return parts
}

// Raw converts a Value back into a plain Go value suitable for
// encoding/json: the inverse of Normalize's coercion, used when a
// normalized case needs to be re-serialized for a generated driver or an
// API response.
func (v Value) Raw() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindSequence:
		out := make([]any, 0, len(v.Sequence))
		for _, item := range v.Sequence {
			out = append(out, item.Raw())
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.Mapping))
		for k, val := range v.Mapping {
			out[k] = val.Raw()
		}
		return out
	default:
		return nil
	}
}

// ValuesEqual implements the comparator of spec.md §4.3 on the Go side,
// mirroring the generated driver's in-language comparator. No judge path
// calls it: predict and output-comparison fix-error mode compare normalized
// output text with Equal instead.
func ValuesEqual(a, b Value) bool {
	if a.Kind == KindNull || b.Kind == KindNull {
		return a.Kind == KindNull && b.Kind == KindNull
	}
	if a.Kind == KindBool || b.Kind == KindBool {
		return a.Kind == KindBool && b.Kind == KindBool && a.Bool == b.Bool
	}
	if isNumeric(a) && isNumeric(b) {
		if a.Kind == KindFloat || b.Kind == KindFloat {
			return absFloat(numericValue(a)-numericValue(b)) < 1e-9
		}
		return a.Int == b.Int
	}
	if a.Kind == KindSequence && b.Kind == KindSequence {
		if len(a.Sequence) != len(b.Sequence) {
			return false
		}
		for i := range a.Sequence {
			if !ValuesEqual(a.Sequence[i], b.Sequence[i]) {
				return false
			}
		}
		return true
	}
	if a.Kind == KindMapping && b.Kind == KindMapping {
		if len(a.Mapping) != len(b.Mapping) {
			return false
		}
		for k, av := range a.Mapping {
			bv, ok := b.Mapping[k]
			if !ok || !ValuesEqual(av, bv) {
				return false
			}
		}
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	return a.Str == b.Str
}

func isNumeric(v Value) bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

func numericValue(v Value) float64 {
	if v.Kind == KindFloat {
		return v.Float
	}
	return float64(v.Int)
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func toString(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
