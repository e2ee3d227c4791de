package judge

// Shape returns a redacted copy of resp appropriate for mode. Run mode is
// returned unchanged; submit mode strips fields that would let a caller
// reconstruct hidden test data.
func Shape(resp Response, mode Mode) Response {
	if mode == ModeRun {
		return resp
	}

	shaped := resp
	shaped.Results = make([]PerCaseResult, len(resp.Results))
	for i, r := range resp.Results {
		shaped.Results[i] = shapeCase(r)
	}

	if resp.Verdict != VerdictAccepted {
		shaped.Error = nil
	}

	// Fix-error responses carry raw stdout/stderr/diff alongside the
	// shared envelope; submit mode on a non-accepted fix-error verdict
	// must not leak the hidden program's output through them.
	if resp.Status != "" && resp.Verdict != VerdictAccepted {
		shaped.Stdout = ""
		shaped.Stderr = ""
		shaped.Diff = nil
	}

	return shaped
}

func shapeCase(r PerCaseResult) PerCaseResult {
	shaped := PerCaseResult{
		ID:        r.ID,
		Pass:      r.Pass,
		RuntimeMS: r.RuntimeMS,
		IsVisible: r.IsVisible,
	}

	if !r.IsVisible {
		if r.Error != nil {
			shaped.Error = ptr("Runtime Error")
		}
		return shaped
	}

	shaped.Actual = r.Actual
	shaped.Expected = r.Expected
	if r.Error != nil {
		shaped.Error = ptr(classifyError(*r.Error))
	}
	return shaped
}

func ptr(s string) *string { return &s }
