// Package judge implements the jjudge evaluation core: normalization of
// learner-submitted values, generation of per-language driver programs,
// dispatch to an external sandbox runner, and classification of the
// runner's raw output into a verdict.
//
// The package is deliberately stateless and has no dependency on
// persistence, storage, or messaging — it is invoked by the apiserver's
// HTTP handlers and worker process, never the other way around.
package judge

import (
	"encoding/json"
	"time"
)

// Language is the closed set of source languages the judge accepts.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// Mode selects the response transparency level.
type Mode string

const (
	ModeRun    Mode = "run"
	ModeSubmit Mode = "submit"
)

// JudgeKind selects which of the three judges handles a request.
type JudgeKind string

const (
	JudgeFunctional JudgeKind = "functional-signature"
	JudgePredict    JudgeKind = "predict-output"
	JudgeFixError   JudgeKind = "fix-error-mode"
)

// ValidationType selects the fix-error validation strategy.
type ValidationType string

const (
	ValidationOutputComparison ValidationType = "output_comparison"
	ValidationTestCases        ValidationType = "test_cases"
	ValidationCustomFunction   ValidationType = "custom_function"
)

// Verdict is the final classification of a judge invocation.
type Verdict string

const (
	VerdictAccepted          Verdict = "accepted"
	VerdictWrongAnswer       Verdict = "wrong_answer"
	VerdictRuntimeError      Verdict = "runtime_error"
	VerdictTimeLimitExceeded Verdict = "time_limit_exceeded"
	VerdictCompilationError Verdict = "compilation_error"
)

// FailureType is the fix-error-specific failure taxonomy (spec.md §4.5).
type FailureType string

const (
	FailureCompileError  FailureType = "COMPILE_ERROR"
	FailureRuntimeError  FailureType = "RUNTIME_ERROR"
	FailureTimeout       FailureType = "TIMEOUT"
	FailureWrongAnswer   FailureType = "WRONG_ANSWER"
	FailureValidatorErr  FailureType = "VALIDATOR_ERROR"
)

// TestCase is a single input/expected pair as supplied by the caller. It
// backs two distinct wire shapes (spec.md §6): functional/predict cases
// (`id`, `inputs`, `expected_output` as a raw value, `is_visible`) and
// fix-error test_cases (`input`, `expected_output` as a plain string,
// `is_hidden` — the inverse sense of IsVisible). UnmarshalJSON reconciles
// both onto the same Go fields.
type TestCase struct {
	ID             string           `json:"id"`
	Inputs         map[string]any   `json:"inputs,omitempty"` // functional: parameter name -> raw value
	ExpectedOutput any              `json:"expected_output,omitempty"` // functional/predict: raw expected value
	Input          string           `json:"input,omitempty"`           // fix-error test_cases: source appended to the code; predict: predicted stdout
	Expected       string           `json:"-"`                         // fix-error test_cases: raw expected stdout
	IsVisible      bool             `json:"is_visible,omitempty"`
}

// UnmarshalJSON decodes a TestCase from either wire shape it backs. The
// fix-error shape's expected stdout travels over the same "expected_output"
// key as the functional/predict shape's raw expected value, so a string
// decode there is copied onto Expected too. A present "is_hidden" key
// overrides IsVisible with its inverse.
func (c *TestCase) UnmarshalJSON(data []byte) error {
	type alias TestCase
	aux := struct {
		*alias
		IsHidden *bool `json:"is_hidden"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.IsHidden != nil {
		c.IsVisible = !*aux.IsHidden
	}
	if s, ok := c.ExpectedOutput.(string); ok {
		c.Expected = s
	}
	return nil
}

// NormalizedCase is a TestCase with every value coerced to a Value.
type NormalizedCase struct {
	ID             string
	Inputs         map[string]Value
	ExpectedOutput Value
	Input          string
	Expected       string
	IsVisible      bool
}

// PerCaseResult is the per-case outcome reported back to the caller.
type PerCaseResult struct {
	ID        string  `json:"id"`
	Pass      bool    `json:"pass"`
	Actual    *Value  `json:"actual_output,omitempty"`
	Expected  *Value  `json:"expected_output,omitempty"`
	RuntimeMS *int64  `json:"runtime_ms,omitempty"`
	Error     *string `json:"error,omitempty"`
	IsVisible bool    `json:"is_visible,omitempty"`
}

// Request is a single judge invocation. The functional/predict shape and
// the fix-error test_cases shape both carry their case list under the
// wire key "test_cases" (spec.md §6); UnmarshalJSON populates both Cases
// and FixErrorCases from it and the relevant dispatcher reads whichever
// one its judge kind uses.
type Request struct {
	TraceID       string    `json:"trace_id,omitempty"`
	Code          string    `json:"code"`
	Language      Language  `json:"language"`
	Kind          JudgeKind `json:"-"`
	Mode          Mode      `json:"mode,omitempty"`
	TimeLimitMS   int64     `json:"time_limit_ms,omitempty"`
	MemoryLimitMB int64     `json:"memory_limit_mb,omitempty"`

	// Functional / predict
	FunctionName   string     `json:"function_name,omitempty"`
	ParameterNames []string   `json:"parameter_names,omitempty"`
	Cases          []TestCase `json:"test_cases,omitempty"`

	// Fix-error
	ValidationType  ValidationType `json:"validation_type,omitempty"`
	ExpectedOutput  string         `json:"expected_output,omitempty"`
	FixErrorCases   []TestCase     `json:"-"`
	CustomValidator string         `json:"custom_validator,omitempty"`
}

// UnmarshalJSON decodes a Request and mirrors the decoded "test_cases"
// array onto both Cases and FixErrorCases (see the Request doc comment).
func (r *Request) UnmarshalJSON(data []byte) error {
	type alias Request
	aux := (*alias)(r)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	r.FixErrorCases = r.Cases
	return nil
}

// Response is the envelope returned to the caller.
type Response struct {
	Verdict        Verdict         `json:"verdict"`
	PassedCount    int             `json:"passed_count"`
	TotalCount     int             `json:"total_count"`
	Results        []PerCaseResult `json:"test_results"`
	Error          *string         `json:"error,omitempty"`
	TotalRuntimeMS int64           `json:"total_runtime_ms"`

	// Fix-error-only fields.
	Status         string       `json:"status,omitempty"` // "PASS" | "FAIL"
	FailureType    *FailureType `json:"failureType,omitempty"`
	SummaryMessage string       `json:"summaryMessage,omitempty"`
	Stdout         string       `json:"stdout,omitempty"`
	Stderr         string       `json:"stderr,omitempty"`
	Diff           []DiffLine   `json:"diff,omitempty"`
}

const defaultTimeLimitMS = 5000

// DefaultTimeLimit returns the spec.md default wall-clock limit.
func DefaultTimeLimit() time.Duration {
	return defaultTimeLimitMS * time.Millisecond
}
