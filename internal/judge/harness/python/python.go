// Package python generates the Python driver tail for the functional and
// predict-output judges.
package python

import (
	"bytes"
	"text/template"

	"github.com/jjudge/judge-api/internal/judge/harness"
)

var driverTemplate = template.Must(template.New("python-driver").Parse(`
import json
import time


def _ajudge_equal(a, b):
    if a is None or b is None:
        return a is b
    if isinstance(a, bool) or isinstance(b, bool):
        return a is b
    if isinstance(a, (int, float)) and isinstance(b, (int, float)):
        if isinstance(a, float) or isinstance(b, float):
            return abs(a - b) < 1e-9
        return a == b
    if isinstance(a, list) and isinstance(b, list):
        return len(a) == len(b) and all(_ajudge_equal(x, y) for x, y in zip(a, b))
    if isinstance(a, dict) and isinstance(b, dict):
        return set(a.keys()) == set(b.keys()) and all(
            _ajudge_equal(a[k], b[k]) for k in a
        )
    return a == b


_ajudge_params = json.loads({{.Params}})
_ajudge_cases = json.loads({{.Cases}})
_ajudge_results = []

for _case in _ajudge_cases:
    _args = [_case["inputs"][_p] for _p in _ajudge_params]
    _start = time.monotonic()
    _actual = None
    _error = None
    try:
        _actual = {{.FunctionName}}(*_args)
    except Exception as _exc:
        _error = (type(_exc).__name__ + ": " + str(_exc))[:200]
    _runtime_ms = int((time.monotonic() - _start) * 1000)
    _expected = _case["expected"]
    _pass = _error is None and _ajudge_equal(_actual, _expected)
    _ajudge_results.append(
        {
            "id": _case["id"],
            "pass": _pass,
            "actual": _actual,
            "expected": _expected,
            "runtime_ms": _runtime_ms,
            "error": _error,
        }
    )

print(json.dumps(_ajudge_results))
`))

type driverData struct {
	FunctionName string
	Params       string
	Cases        string
}

// Generate produces a Python driver tail. The caller appends it to the
// learner's source (which must define FunctionName at module scope) to
// form the complete program handed to the sandbox.
func Generate(fn string, params []string, cases []harness.NormalizedCase) (string, error) {
	paramsJSON, err := harness.EmbedJSON(params)
	if err != nil {
		return "", err
	}
	casesJSON, err := harness.EmbedJSON(harness.ToCases(cases))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := driverTemplate.Execute(&buf, driverData{
		FunctionName: fn,
		Params:       paramsJSON,
		Cases:        casesJSON,
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
