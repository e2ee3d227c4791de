package judge

import "testing"

func TestNormalizeScalars(t *testing.T) {
	cases := []struct {
		in   string
		want Value
	}{
		{"true", BoolValue(true)},
		{"False", BoolValue(false)},
		{"null", NullValue()},
		{"None", NullValue()},
		{"  42  ", IntValue(42)},
		{"-7", IntValue(-7)},
		{"3.14", FloatValue(3.14)},
		{"", StringValue("")},
		{"hello world", StringValue("hello world")},
	}
	for _, c := range cases {
		got := Normalize(c.in)
		if got.Kind != c.want.Kind {
			t.Errorf("Normalize(%q).Kind = %v, want %v", c.in, got.Kind, c.want.Kind)
		}
	}
}

func TestNormalizeNumericSequences(t *testing.T) {
	got := Normalize("1,2,3")
	if got.Kind != KindSequence || len(got.Sequence) != 3 {
		t.Fatalf("Normalize(%q) = %+v, want 3-element sequence", "1,2,3", got)
	}
	for _, v := range got.Sequence {
		if v.Kind != KindInt {
			t.Errorf("element kind = %v, want KindInt", v.Kind)
		}
	}

	got = Normalize("1 2 3")
	if got.Kind != KindSequence || len(got.Sequence) != 3 {
		t.Fatalf("Normalize(%q) = %+v, want 3-element sequence", "1 2 3", got)
	}
}

func TestNormalizeSentenceNotSplit(t *testing.T) {
	got := Normalize("apples, bananas and pears")
	if got.Kind != KindString {
		t.Fatalf("Normalize(sentence) = %+v, want string", got)
	}
}

func TestNormalizeJSONLiteral(t *testing.T) {
	got := Normalize(`[1, 2, "x"]`)
	if got.Kind != KindSequence || len(got.Sequence) != 3 {
		t.Fatalf("Normalize(json array) = %+v", got)
	}
	if got.Sequence[2].Kind != KindString || got.Sequence[2].Str != "x" {
		t.Errorf("element 2 = %+v, want string x", got.Sequence[2])
	}

	m := Normalize(`{"a": 1}`)
	if m.Kind != KindMapping {
		t.Fatalf("Normalize(json object) = %+v, want mapping", m)
	}
	if m.Mapping["a"].Kind != KindInt || m.Mapping["a"].Int != 1 {
		t.Errorf("mapping[a] = %+v, want int 1", m.Mapping["a"])
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := "1,2,3"
	first := Normalize(raw)
	second := Normalize(first)
	if second.Kind != first.Kind || len(second.Sequence) != len(first.Sequence) {
		t.Fatalf("Normalize not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestNormalizePassthrough(t *testing.T) {
	if Normalize(nil).Kind != KindNull {
		t.Error("Normalize(nil) should be null")
	}
	if Normalize(true).Kind != KindBool {
		t.Error("Normalize(true) should be bool")
	}
	if Normalize(3).Kind != KindInt {
		t.Error("Normalize(3) should be int")
	}
	if Normalize(3.5).Kind != KindFloat {
		t.Error("Normalize(3.5) should be float")
	}
}

func TestValueRaw(t *testing.T) {
	v := Normalize("1,2,3")
	raw, ok := v.Raw().([]any)
	if !ok || len(raw) != 3 {
		t.Fatalf("Raw() = %#v, want 3-element slice", v.Raw())
	}
}
