package judge

import "regexp"

// stderrPatterns classifies fix-error stderr output into a FailureType
// when the sandbox reports a nonzero exit without a separate compile
// stage. The set is closed and per-language: interpreted languages don't
// get a compile step from the runner, so a syntax error surfaces as a
// runtime exit whose stderr carries a language-specific marker.
var stderrPatterns = map[Language][]*regexp.Regexp{
	LanguagePython: {
		regexp.MustCompile(`SyntaxError`),
		regexp.MustCompile(`IndentationError`),
	},
	LanguageJavaScript: {
		regexp.MustCompile(`SyntaxError`),
	},
	LanguageTypeScript: {
		regexp.MustCompile(`error TS\d+`),
		regexp.MustCompile(`SyntaxError`),
	},
}

// classifyStderr reports whether stderr matches a known compile-error
// pattern for lang.
func classifyStderr(lang Language, stderr string) bool {
	for _, pattern := range stderrPatterns[lang] {
		if pattern.MatchString(stderr) {
			return true
		}
	}
	return false
}

// GlobalVerdict derives the overall verdict from a sandbox result and the
// per-case outcomes, in the priority order of spec.md §4.5.
func GlobalVerdict(result ExecuteResult, results []PerCaseResult, parseFailed bool) Verdict {
	if result.CompileStderr != "" {
		return VerdictCompilationError
	}
	if result.TimedOut {
		return VerdictTimeLimitExceeded
	}
	if result.ExitCode != 0 && result.Stderr != "" && result.Stdout == "" {
		return VerdictRuntimeError
	}
	if parseFailed {
		return VerdictRuntimeError
	}
	for _, r := range results {
		if !r.Pass && r.Error != nil {
			return VerdictRuntimeError
		}
	}
	for _, r := range results {
		if !r.Pass {
			return VerdictWrongAnswer
		}
	}
	return VerdictAccepted
}

// classErrorPrefixes are the known runtime-error class names preserved
// verbatim in submit-mode visible-case errors; anything else collapses to
// "Runtime Error" so internal exception text never leaks.
var classErrorPrefixes = map[string]bool{
	"TypeError":         true,
	"ValueError":        true,
	"IndexError":        true,
	"KeyError":          true,
	"ZeroDivisionError": true,
	"AttributeError":    true,
	"NameError":         true,
	"SyntaxError":       true,
	"ReferenceError":    true,
	"RangeError":        true,
}

// errorClassPattern extracts the leading "ClassName:" prefix a driver
// emits for a thrown exception.
var errorClassPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):`)

// classifyError returns the known class name from a driver-emitted error
// string, or the generic fallback if the class isn't in the known set.
func classifyError(raw string) string {
	const generic = "Runtime Error"
	match := errorClassPattern.FindStringSubmatch(raw)
	if match == nil {
		return generic
	}
	if classErrorPrefixes[match[1]] {
		return match[1]
	}
	return generic
}
