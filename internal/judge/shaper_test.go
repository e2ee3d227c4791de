package judge

import "testing"

func TestShapeRunModeUnchanged(t *testing.T) {
	errMsg := "boom"
	v := IntValue(1)
	resp := Response{
		Verdict: VerdictWrongAnswer,
		Results: []PerCaseResult{{ID: "1", Pass: false, Actual: &v, Error: &errMsg, IsVisible: false}},
		Error:   &errMsg,
	}
	shaped := Shape(resp, ModeRun)
	if shaped.Results[0].Actual == nil {
		t.Error("run mode must not redact actual")
	}
	if shaped.Error == nil {
		t.Error("run mode must not redact top-level error")
	}
}

func TestShapeSubmitModeHidesNonVisible(t *testing.T) {
	errMsg := "TypeError: bad"
	v := IntValue(1)
	resp := Response{
		Verdict: VerdictWrongAnswer,
		Results: []PerCaseResult{{ID: "1", Pass: false, Actual: &v, Expected: &v, Error: &errMsg, IsVisible: false}},
	}
	shaped := Shape(resp, ModeSubmit)
	r := shaped.Results[0]
	if r.Actual != nil || r.Expected != nil {
		t.Error("submit mode must drop actual/expected for non-visible cases")
	}
	if r.Error == nil || *r.Error != "Runtime Error" {
		t.Errorf("Error = %v, want generic Runtime Error", r.Error)
	}
}

func TestShapeSubmitModeKeepsVisibleKnownClass(t *testing.T) {
	errMsg := "TypeError: unsupported operand"
	v := IntValue(1)
	resp := Response{
		Verdict: VerdictWrongAnswer,
		Results: []PerCaseResult{{ID: "1", Pass: false, Actual: &v, Expected: &v, Error: &errMsg, IsVisible: true}},
	}
	shaped := Shape(resp, ModeSubmit)
	r := shaped.Results[0]
	if r.Actual == nil || r.Expected == nil {
		t.Error("submit mode must keep actual/expected for visible cases")
	}
	if r.Error == nil || *r.Error != "TypeError" {
		t.Errorf("Error = %v, want TypeError", r.Error)
	}
}

func TestShapeSubmitModeCollapsesUnknownClass(t *testing.T) {
	errMsg := "WeirdInternalError: leaked detail"
	resp := Response{
		Verdict: VerdictWrongAnswer,
		Results: []PerCaseResult{{ID: "1", Pass: false, Error: &errMsg, IsVisible: true}},
	}
	shaped := Shape(resp, ModeSubmit)
	if *shaped.Results[0].Error != "Runtime Error" {
		t.Errorf("Error = %v, want Runtime Error", *shaped.Results[0].Error)
	}
}

func TestShapeSubmitModeDropsTopLevelErrorOnNonAccepted(t *testing.T) {
	errMsg := "harness internals leaked"
	resp := Response{Verdict: VerdictRuntimeError, Error: &errMsg}
	shaped := Shape(resp, ModeSubmit)
	if shaped.Error != nil {
		t.Error("submit mode must drop top-level error on non-accepted verdict")
	}
}

func TestShapeFixErrorSubmitModeRedactsOutput(t *testing.T) {
	ft := FailureWrongAnswer
	resp := Response{
		Status:      "FAIL",
		FailureType: &ft,
		Verdict:     VerdictWrongAnswer,
		Stdout:      "secret output",
		Stderr:      "secret stderr",
		Diff:        []DiffLine{{Index: 0, Kind: DiffIncorrect}},
	}
	shaped := Shape(resp, ModeSubmit)
	if shaped.Stdout != "" || shaped.Stderr != "" || shaped.Diff != nil {
		t.Error("submit mode must redact fix-error stdout/stderr/diff on failure")
	}
}
