package judge

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// runnerVersion pins one interpreter version per supported language; the
// external runner selects the toolchain image by this string.
var runnerVersion = map[Language]string{
	LanguagePython:     "3.11",
	LanguageJavaScript: "20",
	LanguageTypeScript: "5.4",
}

// ExecuteParams is the normalized request the judge makes of any sandbox
// runner, independent of that runner's own wire format.
type ExecuteParams struct {
	Source    string
	Language  Language
	TimeLimit time.Duration
}

// ExecuteResult is the four concepts spec.md §4.4 requires every runner
// adapter to surface, regardless of the runner's own response shape.
type ExecuteResult struct {
	Stdout        string
	Stderr        string
	ExitCode      int
	TimedOut      bool
	CompileStderr string
}

// SandboxRunner executes one program in an isolated environment and
// reports its outcome.
type SandboxRunner interface {
	Execute(ctx context.Context, params ExecuteParams) (ExecuteResult, error)
}

// runnerFile mirrors the external runner's {content} file entry; only a
// single file is ever submitted since the harness inlines the driver into
// the same source as the learner's code.
type runnerFile struct {
	Content string `json:"content"`
}

type runnerRequest struct {
	Language   string       `json:"language"`
	Version    string       `json:"version"`
	Files      []runnerFile `json:"files"`
	RunTimeout int64        `json:"run_timeout"`
}

type runnerStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
	Signal string `json:"signal"`
}

type runnerResponse struct {
	Compile *runnerStage `json:"compile"`
	Run     *runnerStage `json:"run"`
}

// timeoutSignal is the signal name the runner reports when it kills a
// process for exceeding run_timeout.
const timeoutSignal = "SIGKILL"

// HTTPSandboxRunner posts to an external code-execution runner over HTTP.
type HTTPSandboxRunner struct {
	client  *resty.Client
	baseURL string
	margin  time.Duration
}

// NewHTTPSandboxRunner builds a runner client. margin is added on top of
// each request's time limit so transport latency cannot itself manifest
// as a local timeout before the runner has a chance to report its own.
func NewHTTPSandboxRunner(baseURL string, margin time.Duration) *HTTPSandboxRunner {
	return &HTTPSandboxRunner{
		client:  resty.New(),
		baseURL: baseURL,
		margin:  margin,
	}
}

func (r *HTTPSandboxRunner) Execute(ctx context.Context, params ExecuteParams) (ExecuteResult, error) {
	version := runnerVersion[params.Language]

	req := runnerRequest{
		Language:   string(params.Language),
		Version:    version,
		Files:      []runnerFile{{Content: params.Source}},
		RunTimeout: params.TimeLimit.Milliseconds(),
	}

	var out runnerResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetTimeout(params.TimeLimit+r.margin).
		SetBody(req).
		SetResult(&out).
		Post(r.baseURL + "/execute")
	if err != nil {
		return ExecuteResult{}, err
	}
	if resp.IsError() {
		return ExecuteResult{}, &sandboxError{status: resp.StatusCode()}
	}

	return classify(out), nil
}

func classify(resp runnerResponse) ExecuteResult {
	result := ExecuteResult{}

	if resp.Compile != nil && resp.Compile.Stderr != "" {
		result.CompileStderr = resp.Compile.Stderr
	}

	if resp.Run != nil {
		result.Stdout = resp.Run.Stdout
		result.Stderr = resp.Run.Stderr
		result.ExitCode = resp.Run.Code
		if resp.Run.Signal == timeoutSignal {
			result.TimedOut = true
		}
	}

	return result
}

type sandboxError struct {
	status int
}

func (e *sandboxError) Error() string {
	return "sandbox runner returned non-2xx status"
}
