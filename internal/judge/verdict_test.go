package judge

import "testing"

func TestGlobalVerdictPriority(t *testing.T) {
	if v := GlobalVerdict(ExecuteResult{CompileStderr: "err"}, nil, false); v != VerdictCompilationError {
		t.Errorf("compile error case = %v", v)
	}
	if v := GlobalVerdict(ExecuteResult{TimedOut: true}, nil, false); v != VerdictTimeLimitExceeded {
		t.Errorf("timeout case = %v", v)
	}
	if v := GlobalVerdict(ExecuteResult{ExitCode: 1, Stderr: "boom"}, nil, false); v != VerdictRuntimeError {
		t.Errorf("nonzero exit case = %v", v)
	}
	if v := GlobalVerdict(ExecuteResult{}, nil, true); v != VerdictRuntimeError {
		t.Errorf("parse failure case = %v", v)
	}
}

func TestGlobalVerdictWrongAnswerVsAccepted(t *testing.T) {
	results := []PerCaseResult{{ID: "1", Pass: true}, {ID: "2", Pass: false}}
	if v := GlobalVerdict(ExecuteResult{}, results, false); v != VerdictWrongAnswer {
		t.Errorf("mixed results = %v, want wrong_answer", v)
	}
	allPass := []PerCaseResult{{ID: "1", Pass: true}, {ID: "2", Pass: true}}
	if v := GlobalVerdict(ExecuteResult{}, allPass, false); v != VerdictAccepted {
		t.Errorf("all pass = %v, want accepted", v)
	}
}

func TestClassifyStderr(t *testing.T) {
	if !classifyStderr(LanguagePython, "SyntaxError: invalid syntax") {
		t.Error("python SyntaxError should classify as compile-like")
	}
	if classifyStderr(LanguagePython, "ValueError: bad value") {
		t.Error("ValueError should not classify as compile-like")
	}
}

func TestClassifyError(t *testing.T) {
	if got := classifyError("TypeError: bad"); got != "TypeError" {
		t.Errorf("classifyError = %q, want TypeError", got)
	}
	if got := classifyError("WeirdError: bad"); got != "Runtime Error" {
		t.Errorf("classifyError = %q, want Runtime Error", got)
	}
	if got := classifyError("no class prefix here"); got != "Runtime Error" {
		t.Errorf("classifyError = %q, want Runtime Error", got)
	}
}

func TestValuesEqualFloatEpsilon(t *testing.T) {
	if !ValuesEqual(IntValue(1), FloatValue(1.0)) {
		t.Error("1 and 1.0 should be equal under epsilon comparison")
	}
}

func TestValuesEqualMappingOrderIndependent(t *testing.T) {
	a := MappingValue([]string{"a", "b"}, map[string]Value{"a": IntValue(1), "b": IntValue(2)})
	b := MappingValue([]string{"b", "a"}, map[string]Value{"b": IntValue(2), "a": IntValue(1)})
	if !ValuesEqual(a, b) {
		t.Error("mappings with same keys/values in different order should be equal")
	}
}
