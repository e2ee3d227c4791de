package judge

import (
	"context"
	"testing"
)

type stubRunner struct {
	result ExecuteResult
	err    error
}

func (s *stubRunner) Execute(ctx context.Context, params ExecuteParams) (ExecuteResult, error) {
	return s.result, s.err
}

func TestDispatchFunctionalAccepted(t *testing.T) {
	runner := &stubRunner{result: ExecuteResult{
		Stdout: `[{"id":"1","pass":true,"actual":3,"expected":3,"runtime_ms":1,"error":null}]`,
	}}
	d := NewDispatcher(runner)

	req := Request{
		Code:           "def add(a, b):\n    return a + b\n",
		Language:       LanguagePython,
		Kind:           JudgeFunctional,
		Mode:           ModeRun,
		FunctionName:   "add",
		ParameterNames: []string{"a", "b"},
		Cases: []TestCase{
			{ID: "1", Inputs: map[string]any{"a": 1, "b": 2}, ExpectedOutput: 3, IsVisible: true},
		},
	}

	resp := d.DispatchFunctional(context.Background(), req)
	if resp.Verdict != VerdictAccepted {
		t.Fatalf("Verdict = %v, want accepted", resp.Verdict)
	}
	if resp.PassedCount != 1 || resp.TotalCount != 1 {
		t.Errorf("PassedCount/TotalCount = %d/%d, want 1/1", resp.PassedCount, resp.TotalCount)
	}
}

func TestDispatchFunctionalWrongAnswer(t *testing.T) {
	runner := &stubRunner{result: ExecuteResult{
		Stdout: `[{"id":"1","pass":false,"actual":4,"expected":3,"runtime_ms":1,"error":null}]`,
	}}
	d := NewDispatcher(runner)
	req := Request{
		Code:           "def add(a, b):\n    return a + b + 1\n",
		Language:       LanguagePython,
		FunctionName:   "add",
		ParameterNames: []string{"a", "b"},
		Mode:           ModeRun,
		Cases: []TestCase{
			{ID: "1", Inputs: map[string]any{"a": 1, "b": 2}, ExpectedOutput: 3, IsVisible: true},
		},
	}
	resp := d.DispatchFunctional(context.Background(), req)
	if resp.Verdict != VerdictWrongAnswer {
		t.Fatalf("Verdict = %v, want wrong_answer", resp.Verdict)
	}
}

func TestDispatchFunctionalSandboxUnavailable(t *testing.T) {
	runner := &stubRunner{err: &sandboxError{status: 503}}
	d := NewDispatcher(runner)
	req := Request{
		Code:           "def add(a, b): return a + b",
		Language:       LanguagePython,
		FunctionName:   "add",
		ParameterNames: []string{"a", "b"},
		Cases: []TestCase{
			{ID: "1", Inputs: map[string]any{"a": 1, "b": 2}, ExpectedOutput: 3, IsVisible: true},
		},
	}
	resp := d.DispatchFunctional(context.Background(), req)
	if resp.Verdict != VerdictRuntimeError {
		t.Fatalf("Verdict = %v, want runtime_error", resp.Verdict)
	}
	if resp.Error == nil || *resp.Error != "Code execution service unavailable" {
		t.Errorf("Error = %v, want generic unavailable message", resp.Error)
	}
}

func TestDispatchFunctionalSubmitModeRedactsHidden(t *testing.T) {
	runner := &stubRunner{result: ExecuteResult{
		Stdout: `[{"id":"1","pass":true,"actual":3,"expected":3,"runtime_ms":1,"error":null},` +
			`{"id":"2","pass":false,"actual":5,"expected":4,"runtime_ms":1,"error":null}]`,
	}}
	d := NewDispatcher(runner)
	req := Request{
		Code:           "def add(a, b): return a + b",
		Language:       LanguagePython,
		FunctionName:   "add",
		ParameterNames: []string{"a", "b"},
		Mode:           ModeSubmit,
		Cases: []TestCase{
			{ID: "1", Inputs: map[string]any{"a": 1, "b": 2}, ExpectedOutput: 3, IsVisible: true},
			{ID: "2", Inputs: map[string]any{"a": 2, "b": 2}, ExpectedOutput: 4, IsVisible: false},
		},
	}
	resp := d.DispatchFunctional(context.Background(), req)
	if len(resp.Results) != 2 {
		t.Fatalf("Results len = %d, want 2", len(resp.Results))
	}
	hidden := resp.Results[1]
	if hidden.Actual != nil || hidden.Expected != nil {
		t.Error("hidden case should not expose actual/expected in submit mode")
	}
}

func TestDispatchPredictAccepted(t *testing.T) {
	d := NewDispatcher(&stubRunner{})
	req := Request{
		Kind: JudgePredict,
		Mode: ModeRun,
		Cases: []TestCase{
			{ID: "1", Input: "hello\n", ExpectedOutput: "hello", IsVisible: true},
		},
	}
	resp := d.DispatchPredict(context.Background(), req)
	if resp.Verdict != VerdictAccepted {
		t.Fatalf("Verdict = %v, want accepted", resp.Verdict)
	}
}

func TestDispatchPredictWrongAnswer(t *testing.T) {
	d := NewDispatcher(&stubRunner{})
	req := Request{
		Cases: []TestCase{
			{ID: "1", Input: "goodbye", ExpectedOutput: "hello", IsVisible: true},
		},
	}
	resp := d.DispatchPredict(context.Background(), req)
	if resp.Verdict != VerdictWrongAnswer {
		t.Fatalf("Verdict = %v, want wrong_answer", resp.Verdict)
	}
}

func TestDispatchFixErrorOutputComparisonPass(t *testing.T) {
	runner := &stubRunner{result: ExecuteResult{Stdout: "42\n"}}
	d := NewDispatcher(runner)
	req := Request{
		Code:           "print(42)",
		Language:       LanguagePython,
		ValidationType: ValidationOutputComparison,
		ExpectedOutput: "42",
		Mode:           ModeRun,
	}
	resp := d.DispatchFixError(context.Background(), req)
	if resp.Status != "PASS" || resp.Verdict != VerdictAccepted {
		t.Fatalf("resp = %+v, want PASS/accepted", resp)
	}
}

func TestDispatchFixErrorOutputComparisonFail(t *testing.T) {
	runner := &stubRunner{result: ExecuteResult{Stdout: "41\n"}}
	d := NewDispatcher(runner)
	req := Request{
		Code:           "print(41)",
		Language:       LanguagePython,
		ValidationType: ValidationOutputComparison,
		ExpectedOutput: "42",
		Mode:           ModeSubmit,
	}
	resp := d.DispatchFixError(context.Background(), req)
	if resp.Status != "FAIL" || resp.FailureType == nil || *resp.FailureType != FailureWrongAnswer {
		t.Fatalf("resp = %+v, want FAIL/wrong_answer", resp)
	}
	if resp.Stdout != "" || resp.Diff != nil {
		t.Error("submit-mode failure must not leak stdout/diff")
	}
}

func TestDispatchFixErrorCompileError(t *testing.T) {
	runner := &stubRunner{result: ExecuteResult{CompileStderr: "SyntaxError: invalid syntax"}}
	d := NewDispatcher(runner)
	req := Request{
		Code:           "def f(:",
		Language:       LanguagePython,
		ValidationType: ValidationOutputComparison,
		ExpectedOutput: "x",
	}
	resp := d.DispatchFixError(context.Background(), req)
	if resp.Verdict != VerdictCompilationError {
		t.Fatalf("Verdict = %v, want compilation_error", resp.Verdict)
	}
}
