package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jjudge/judge-api/internal/judge/harness"
	"github.com/jjudge/judge-api/internal/judge/harness/javascript"
	"github.com/jjudge/judge-api/internal/judge/harness/python"
)

// Dispatcher validates a Request, selects the active judge, runs its
// pipeline, and shapes the result for the caller's execution mode.
type Dispatcher struct {
	Runner SandboxRunner
}

// NewDispatcher builds a Dispatcher around a sandbox runner.
func NewDispatcher(runner SandboxRunner) *Dispatcher {
	return &Dispatcher{Runner: runner}
}

func errorResponse(msg string) Response {
	m := msg
	return Response{
		Verdict: VerdictRuntimeError,
		Error:   &m,
	}
}

// DispatchFunctional runs the functional judge: invoke FunctionName with
// each case's normalized inputs, compare against the normalized expected
// value, and classify the pipeline's aggregate outcome.
func (d *Dispatcher) DispatchFunctional(ctx context.Context, req Request) Response {
	if req.Code == "" || req.FunctionName == "" || len(req.Cases) == 0 {
		return errorResponse("Invalid input format")
	}
	req.Mode = normalizeMode(req.Mode)

	limit := resolveTimeLimit(req.TimeLimitMS)
	normalized := normalizeCases(req.Cases)
	activeCases := selectActiveCases(normalized, req.Mode)

	if !everyCaseHasDeclaredParameters(activeCases, req.ParameterNames) {
		return errorResponse("Invalid input format.")
	}

	driver, err := generateDriver(req.Language, req.FunctionName, req.ParameterNames, activeCases)
	if err != nil {
		return errorResponse("Invalid input format")
	}

	source := req.Code + "\n\n" + driver
	result, err := d.Runner.Execute(ctx, ExecuteParams{
		Source:    source,
		Language:  req.Language,
		TimeLimit: limit,
	})
	if err != nil {
		return allCasesFailed(activeCases, "Code execution service unavailable")
	}

	resp := buildFunctionalResponse(result, activeCases)
	return Shape(resp, req.Mode)
}

// DispatchPredict runs the predict-output judge: no code execution, a
// direct output-equality check between each case's submitted prediction
// and its expected output.
func (d *Dispatcher) DispatchPredict(ctx context.Context, req Request) Response {
	if len(req.Cases) == 0 {
		return errorResponse("Invalid input format")
	}
	req.Mode = normalizeMode(req.Mode)

	activeCases := selectActiveCases(normalizeCases(req.Cases), req.Mode)
	results := make([]PerCaseResult, 0, len(activeCases))
	passed := 0

	for _, nc := range activeCases {
		predicted, expected := findPrediction(req.Cases, nc.ID)
		pass := Equal(expected, predicted)
		if pass {
			passed++
		}
		results = append(results, PerCaseResult{
			ID:        nc.ID,
			Pass:      pass,
			IsVisible: nc.IsVisible,
		})
	}

	verdict := VerdictWrongAnswer
	if passed == len(results) {
		verdict = VerdictAccepted
	}

	resp := Response{
		Verdict:     verdict,
		PassedCount: passed,
		TotalCount:  len(results),
		Results:     results,
	}
	return Shape(resp, req.Mode)
}

// findPrediction returns the submitted prediction and the raw expected
// output text of the case with the given id.
func findPrediction(cases []TestCase, id string) (predicted, expected string) {
	for _, c := range cases {
		if c.ID != id {
			continue
		}
		switch raw := c.ExpectedOutput.(type) {
		case nil:
		case string:
			expected = raw
		default:
			b, _ := json.Marshal(raw)
			expected = string(b)
		}
		return c.Input, expected
	}
	return "", ""
}

// DispatchFixError runs one of the three fix-error validation modes.
func (d *Dispatcher) DispatchFixError(ctx context.Context, req Request) Response {
	if req.Code == "" {
		return errorResponse("Invalid input format")
	}
	req.Mode = normalizeMode(req.Mode)

	var resp Response
	switch req.ValidationType {
	case ValidationOutputComparison:
		resp = d.dispatchOutputComparison(ctx, req)
	case ValidationTestCases:
		resp = d.dispatchFixErrorTestCases(ctx, req)
	case ValidationCustomFunction:
		resp = d.dispatchCustomFunction(ctx, req)
	default:
		return errorResponse("Invalid input format")
	}
	return Shape(resp, req.Mode)
}

func (d *Dispatcher) dispatchOutputComparison(ctx context.Context, req Request) Response {
	limit := resolveTimeLimit(req.TimeLimitMS)
	result, err := d.Runner.Execute(ctx, ExecuteParams{Source: req.Code, Language: req.Language, TimeLimit: limit})
	if err != nil {
		return fixErrorUnavailable()
	}

	if failure, ft := classifySandboxFailure(req.Language, result); failure {
		return fixErrorFailure(ft, result)
	}

	actual := NormalizeOutput(result.Stdout)
	expected := NormalizeOutput(req.ExpectedOutput)
	if actual == expected {
		return fixErrorPass(result)
	}

	diff := Diff(req.ExpectedOutput, result.Stdout)
	ft := FailureWrongAnswer
	return Response{
		Status:         "FAIL",
		FailureType:    &ft,
		SummaryMessage: "Output does not match expected output.",
		Stdout:         result.Stdout,
		Stderr:         result.Stderr,
		Diff:           diff,
		Verdict:        VerdictWrongAnswer,
	}
}

func (d *Dispatcher) dispatchFixErrorTestCases(ctx context.Context, req Request) Response {
	limit := resolveTimeLimit(req.TimeLimitMS)
	cases := req.FixErrorCases
	if len(cases) == 0 {
		return errorResponse("Invalid input format")
	}

	results := make([]PerCaseResult, 0, len(cases))
	passed := 0
	var firstFailure *Response

	for _, c := range cases {
		source := req.Code + "\n" + c.Input
		result, err := d.Runner.Execute(ctx, ExecuteParams{Source: source, Language: req.Language, TimeLimit: limit})
		if err != nil {
			return fixErrorUnavailable()
		}

		if failure, ft := classifySandboxFailure(req.Language, result); failure {
			resp := fixErrorFailure(ft, result)
			return resp
		}

		pass := Equal(c.Expected, result.Stdout)
		if pass {
			passed++
		}
		results = append(results, PerCaseResult{ID: c.ID, Pass: pass, IsVisible: c.IsVisible})

		if !pass && firstFailure == nil {
			ft := FailureWrongAnswer
			resp := Response{
				Status:         "FAIL",
				FailureType:    &ft,
				SummaryMessage: fmt.Sprintf("Test case %s failed.", c.ID),
				Stdout:         result.Stdout,
				Stderr:         result.Stderr,
				Diff:           Diff(c.Expected, result.Stdout),
				Verdict:        VerdictWrongAnswer,
				Results:        results,
				PassedCount:    passed,
				TotalCount:     len(cases),
			}
			firstFailure = &resp
			if req.Mode == ModeRun {
				return resp
			}
		}
	}

	if firstFailure != nil {
		firstFailure.Results = results
		firstFailure.PassedCount = passed
		return *firstFailure
	}

	return Response{
		Status:         "PASS",
		SummaryMessage: "All test cases passed.",
		Verdict:        VerdictAccepted,
		Results:        results,
		PassedCount:    passed,
		TotalCount:     len(cases),
	}
}

type validatorOutput struct {
	Pass    bool   `json:"pass"`
	Message string `json:"message"`
}

func (d *Dispatcher) dispatchCustomFunction(ctx context.Context, req Request) Response {
	limit := resolveTimeLimit(req.TimeLimitMS)

	first, err := d.Runner.Execute(ctx, ExecuteParams{Source: req.Code, Language: req.Language, TimeLimit: limit})
	if err != nil {
		return fixErrorUnavailable()
	}
	if failure, ft := classifySandboxFailure(req.Language, first); failure {
		return fixErrorFailure(ft, first)
	}

	stdoutLiteral, err := harness.EmbedJSON(first.Stdout)
	if err != nil {
		return validatorError()
	}

	validatorSource := req.Code + "\n" + fmt.Sprintf("_ajudge_captured_stdout = %s\n", stdoutLiteral) + req.CustomValidator + "\n"
	second, err := d.Runner.Execute(ctx, ExecuteParams{Source: validatorSource, Language: req.Language, TimeLimit: limit})
	if err != nil {
		return fixErrorUnavailable()
	}
	if failure, ft := classifySandboxFailure(req.Language, second); failure {
		return fixErrorFailure(ft, second)
	}

	var out validatorOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(second.Stdout)), &out); err != nil {
		return validatorError()
	}

	if out.Pass {
		return fixErrorPass(second)
	}
	ft := FailureWrongAnswer
	return Response{
		Status:         "FAIL",
		FailureType:    &ft,
		SummaryMessage: out.Message,
		Stdout:         first.Stdout,
		Stderr:         second.Stderr,
		Verdict:        VerdictWrongAnswer,
	}
}

func validatorError() Response {
	ft := FailureValidatorErr
	return Response{
		Status:         "FAIL",
		FailureType:    &ft,
		SummaryMessage: "Internal validation error",
		Verdict:        VerdictRuntimeError,
	}
}

func fixErrorUnavailable() Response {
	ft := FailureRuntimeError
	msg := "Code execution service unavailable"
	return Response{
		Status:         "FAIL",
		FailureType:    &ft,
		SummaryMessage: msg,
		Verdict:        VerdictRuntimeError,
		Error:          &msg,
	}
}

func fixErrorPass(result ExecuteResult) Response {
	return Response{
		Status:         "PASS",
		SummaryMessage: "Program behaves as expected.",
		Stdout:         result.Stdout,
		Stderr:         result.Stderr,
		Verdict:        VerdictAccepted,
	}
}

func fixErrorFailure(ft FailureType, result ExecuteResult) Response {
	verdict := VerdictRuntimeError
	summary := "Program raised a runtime error."
	switch ft {
	case FailureCompileError:
		verdict = VerdictCompilationError
		summary = "Program failed to compile."
	case FailureTimeout:
		verdict = VerdictTimeLimitExceeded
		summary = "Program exceeded the time limit."
	}
	failureType := ft
	return Response{
		Status:         "FAIL",
		FailureType:    &failureType,
		SummaryMessage: summary,
		Stdout:         result.Stdout,
		Stderr:         result.Stderr,
		Verdict:        verdict,
	}
}

// classifySandboxFailure inspects a raw sandbox result for compile,
// timeout, or stderr-pattern syntactic failures, returning the failure
// type to report if any applies.
func classifySandboxFailure(lang Language, result ExecuteResult) (bool, FailureType) {
	if result.CompileStderr != "" {
		return true, FailureCompileError
	}
	if result.TimedOut {
		return true, FailureTimeout
	}
	if result.ExitCode != 0 && result.Stderr != "" && result.Stdout == "" {
		if classifyStderr(lang, result.Stderr) {
			return true, FailureCompileError
		}
		return true, FailureRuntimeError
	}
	return false, ""
}

// normalizeMode applies spec.md §6's "mode (run | submit, default run)".
func normalizeMode(mode Mode) Mode {
	if mode == ModeSubmit {
		return ModeSubmit
	}
	return ModeRun
}

func resolveTimeLimit(ms int64) time.Duration {
	if ms <= 0 {
		return DefaultTimeLimit()
	}
	return time.Duration(ms) * time.Millisecond
}

func normalizeCases(cases []TestCase) []NormalizedCase {
	out := make([]NormalizedCase, 0, len(cases))
	for _, c := range cases {
		inputs := make(map[string]Value, len(c.Inputs))
		for k, v := range c.Inputs {
			inputs[k] = Normalize(v)
		}
		isVisible := c.IsVisible
		out = append(out, NormalizedCase{
			ID:             c.ID,
			Inputs:         inputs,
			ExpectedOutput: Normalize(c.ExpectedOutput),
			Input:          c.Input,
			Expected:       c.Expected,
			IsVisible:      isVisible,
		})
	}
	return out
}

// selectActiveCases filters hidden cases out in run mode, matching
// spec.md §4.7's "run mode may filter out hidden cases where appropriate";
// submit mode always evaluates the full set.
func selectActiveCases(cases []NormalizedCase, mode Mode) []NormalizedCase {
	if mode == ModeSubmit {
		return cases
	}
	active := make([]NormalizedCase, 0, len(cases))
	for _, c := range cases {
		if c.IsVisible {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return cases
	}
	return active
}

// everyCaseHasDeclaredParameters reports whether every case supplies a
// value for every declared parameter. A case that omits one is a malformed
// request (spec.md §8): the dispatcher must fail before any learner code
// runs rather than let the generated driver crash on a missing key.
func everyCaseHasDeclaredParameters(cases []NormalizedCase, params []string) bool {
	for _, c := range cases {
		for _, p := range params {
			if _, ok := c.Inputs[p]; !ok {
				return false
			}
		}
	}
	return true
}

func generateDriver(lang Language, fn string, params []string, cases []NormalizedCase) (string, error) {
	hc := toHarnessCases(cases)
	switch lang {
	case LanguagePython:
		return python.Generate(fn, params, hc)
	case LanguageJavaScript, LanguageTypeScript:
		return javascript.Generate(fn, params, hc)
	default:
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
}

func toHarnessCases(cases []NormalizedCase) []harness.NormalizedCase {
	out := make([]harness.NormalizedCase, 0, len(cases))
	for _, c := range cases {
		inputs := make(map[string]any, len(c.Inputs))
		for k, v := range c.Inputs {
			inputs[k] = v.Raw()
		}
		out = append(out, harness.NormalizedCase{
			ID:             c.ID,
			Inputs:         inputs,
			ExpectedOutput: c.ExpectedOutput.Raw(),
		})
	}
	return out
}

type driverRecord struct {
	ID        string          `json:"id"`
	Pass      bool            `json:"pass"`
	Actual    json.RawMessage `json:"actual"`
	Expected  json.RawMessage `json:"expected"`
	RuntimeMS int64           `json:"runtime_ms"`
	Error     *string         `json:"error"`
}

func buildFunctionalResponse(result ExecuteResult, cases []NormalizedCase) Response {
	if result.CompileStderr != "" {
		return Response{Verdict: VerdictCompilationError, TotalCount: len(cases)}
	}
	if result.TimedOut {
		return Response{Verdict: VerdictTimeLimitExceeded, TotalCount: len(cases)}
	}
	if result.ExitCode != 0 && result.Stderr != "" && result.Stdout == "" {
		return allCasesFailed(cases, "Program raised a runtime error.")
	}

	var records []driverRecord
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Stdout)), &records); err != nil {
		return allCasesFailed(cases, "Failed to parse execution results")
	}

	byID := make(map[string]driverRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	results := make([]PerCaseResult, 0, len(cases))
	passed := 0
	for _, c := range cases {
		rec, ok := byID[c.ID]
		if !ok {
			msg := "Failed to parse execution results"
			results = append(results, PerCaseResult{ID: c.ID, Pass: false, Error: &msg, IsVisible: c.IsVisible})
			continue
		}
		if rec.Pass {
			passed++
		}
		pc := PerCaseResult{
			ID:        c.ID,
			Pass:      rec.Pass,
			RuntimeMS: &rec.RuntimeMS,
			Error:     rec.Error,
			IsVisible: c.IsVisible,
		}
		if len(rec.Actual) > 0 {
			pc.Actual = rawToValue(rec.Actual)
		}
		if len(rec.Expected) > 0 {
			pc.Expected = rawToValue(rec.Expected)
		}
		results = append(results, pc)
	}

	verdict := GlobalVerdict(result, results, false)
	return Response{
		Verdict:     verdict,
		PassedCount: passed,
		TotalCount:  len(results),
		Results:     results,
	}
}

func rawToValue(raw json.RawMessage) *Value {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	nv := Normalize(v)
	return &nv
}

func allCasesFailed(cases []NormalizedCase, msg string) Response {
	results := make([]PerCaseResult, 0, len(cases))
	for _, c := range cases {
		m := msg
		results = append(results, PerCaseResult{ID: c.ID, Pass: false, Error: &m, IsVisible: c.IsVisible})
	}
	errMsg := msg
	return Response{
		Verdict:     VerdictRuntimeError,
		PassedCount: 0,
		TotalCount:  len(results),
		Results:     results,
		Error:       &errMsg,
	}
}
