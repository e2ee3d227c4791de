// Package javascript generates the JavaScript driver tail for the
// functional and predict-output judges. The same driver syntax is valid
// TypeScript, so this package also backs judge.LanguageTypeScript.
package javascript

import (
	"bytes"
	"text/template"

	"github.com/jjudge/judge-api/internal/judge/harness"
)

var driverTemplate = template.Must(template.New("javascript-driver").Parse(`
const _ajudgeParams = JSON.parse({{.Params}});
const _ajudgeCases = JSON.parse({{.Cases}});

function _ajudgeEqual(a, b) {
  if (a === null || b === null) return a === b;
  if (typeof a === "boolean" || typeof b === "boolean") return a === b;
  if (typeof a === "number" && typeof b === "number") {
    if (!Number.isInteger(a) || !Number.isInteger(b)) return Math.abs(a - b) < 1e-9;
    return a === b;
  }
  if (Array.isArray(a) && Array.isArray(b)) {
    return a.length === b.length && a.every((v, i) => _ajudgeEqual(v, b[i]));
  }
  if (typeof a === "object" && typeof b === "object" && a !== null && b !== null) {
    const ak = Object.keys(a).sort();
    const bk = Object.keys(b).sort();
    if (ak.length !== bk.length) return false;
    return ak.every((k, i) => k === bk[i] && _ajudgeEqual(a[k], b[k]));
  }
  return a === b;
}

const _ajudgeResults = [];
for (const _case of _ajudgeCases) {
  const _args = _ajudgeParams.map((p) => _case.inputs[p]);
  const _start = Date.now();
  let _actual = null;
  let _error = null;
  try {
    _actual = {{.FunctionName}}(..._args);
  } catch (_exc) {
    _error = ` + "`${_exc.constructor.name}: ${_exc.message}`" + `.slice(0, 200);
  }
  const _runtimeMs = Date.now() - _start;
  const _expected = _case.expected;
  const _pass = _error === null && _ajudgeEqual(_actual, _expected);
  _ajudgeResults.push({
    id: _case.id,
    pass: _pass,
    actual: _actual,
    expected: _expected,
    runtime_ms: _runtimeMs,
    error: _error,
  });
}

console.log(JSON.stringify(_ajudgeResults));
`))

type driverData struct {
	FunctionName string
	Params       string
	Cases        string
}

// Generate produces a JavaScript/TypeScript driver tail. The caller
// appends it to the learner's source (which must define FunctionName at
// module scope) to form the complete program handed to the sandbox.
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
