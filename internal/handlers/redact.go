package handlers

import "github.com/jjudge/judge-api/types"

// hiddenTestcaseIDs collects the testcase IDs a problem marks hidden, used
// to redact per-testcase detail from a non-accepted submission the same
// way internal/judge.Shape redacts a synchronous submit-mode response.
func hiddenTestcaseIDs(problem types.Problem) map[int]bool {
	hidden := make(map[int]bool)
	for _, group := range problem.TestcaseBundle.TestcaseGroups {
		for _, tc := range group.Testcases {
			if tc.IsHidden {
				hidden[tc.ID] = true
			}
		}
	}
	return hidden
}

// redactSubmission strips input/output/error detail for hidden testcases
// on a non-accepted submission, leaving pass/fail and timing intact.
func redactSubmission(submission types.Submission, hidden map[int]bool) types.Submission {
	if submission.Verdict == types.VerdictAccepted || len(submission.TestcaseResults) == 0 {
		return submission
	}

	shaped := submission
	shaped.TestcaseResults = make([]types.TestcaseResult, len(submission.TestcaseResults))
	for i, result := range submission.TestcaseResults {
		if hidden[result.TestcaseID] {
			result.Input = ""
			result.ExpectedOutput = ""
			result.ActualOutput = ""
			if result.ErrorMessage != "" {
				result.ErrorMessage = "Runtime Error"
			}
		}
		shaped.TestcaseResults[i] = result
	}
	return shaped
}
