// Package worker runs the asynchronous submission judging loop: it
// consumes submission jobs from the queue, builds a fix-error test_cases
// judge request out of the problem's testcase bundle, and persists the
// resulting verdict back onto the submission row.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/google/uuid"
	"github.com/jjudge/judge-api/internal/judge"
	"github.com/jjudge/judge-api/internal/mq"
	"github.com/jjudge/judge-api/internal/services"
	"github.com/jjudge/judge-api/internal/storage"
	"github.com/jjudge/judge-api/types"
)

// Worker consumes submission jobs and drives them through the judge core.
type Worker struct {
	submissionService *services.SubmissionService
	problemService    *services.ProblemService
	storage           *storage.Storage
	dispatcher        *judge.Dispatcher
	queue             *mq.MQ
	queueName         string
}

// New constructs a Worker with its dependencies.
func New(
	submissionService *services.SubmissionService,
	problemService *services.ProblemService,
	objectStorage *storage.Storage,
	dispatcher *judge.Dispatcher,
	queue *mq.MQ,
	queueName string,
) *Worker {
	return &Worker{
		submissionService: submissionService,
		problemService:    problemService,
		storage:           objectStorage,
		dispatcher:        dispatcher,
		queue:             queue,
		queueName:         queueName,
	}
}

// Run blocks, consuming submission jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.queue.Subscribe(ctx, w.queueName, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var job types.SubmissionJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Printf("worker: dropping malformed submission job: %v", err)
		return nil
	}

	submission, err := w.submissionService.Get(ctx, job.SubmissionID)
	if err != nil {
		return fmt.Errorf("load submission %d: %w", job.SubmissionID, err)
	}

	problem, err := w.problemService.Get(ctx, job.ProblemID)
	if err != nil {
		return fmt.Errorf("load problem %d: %w", job.ProblemID, err)
	}

	cases, err := w.loadCases(ctx, problem)
	if err != nil {
		return w.finishSystemError(ctx, submission, fmt.Sprintf("failed to load testcases: %v", err))
	}
	if len(cases) == 0 {
		return w.finishSystemError(ctx, submission, "problem has no testcases")
	}

	req := judge.Request{
		TraceID:        uuid.NewString(),
		Code:           submission.Code,
		Language:       judge.Language(submission.Language),
		Kind:           judge.JudgeFixError,
		Mode:           judge.ModeSubmit,
		TimeLimitMS:    problem.TimeLimit,
		MemoryLimitMB:  problem.MemoryLimit / (1024 * 1024),
		ValidationType: judge.ValidationTestCases,
		FixErrorCases:  cases,
	}

	resp := w.dispatcher.DispatchFixError(ctx, req)
	return w.persist(ctx, submission, resp)
}

// loadCases fetches every testcase's input/expected-output blobs from
// object storage, falling back to inline bytes for testcases that were
// never moved to storage.
func (w *Worker) loadCases(ctx context.Context, problem types.Problem) ([]judge.TestCase, error) {
	var cases []judge.TestCase
	for _, group := range problem.TestcaseBundle.TestcaseGroups {
		for _, tc := range group.Testcases {
			input, err := w.readTestcaseBlob(ctx, tc.ObjectKeyIn, tc.Input)
			if err != nil {
				return nil, fmt.Errorf("testcase %d input: %w", tc.ID, err)
			}
			expected, err := w.readTestcaseBlob(ctx, tc.ObjectKeyOut, tc.Output)
			if err != nil {
				return nil, fmt.Errorf("testcase %d output: %w", tc.ID, err)
			}
			cases = append(cases, judge.TestCase{
				ID:        strconv.Itoa(tc.ID),
				Input:     input,
				Expected:  expected,
				IsVisible: !tc.IsHidden,
			})
		}
	}
	return cases, nil
}

func (w *Worker) readTestcaseBlob(ctx context.Context, key, inline string) (string, error) {
	if key == "" {
		return inline, nil
	}
	reader, err := w.storage.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	buf, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// finishSystemError persists a terminal, non-retryable failure and acks
// the message — retrying cannot fix a missing blob or an empty bundle.
func (w *Worker) finishSystemError(ctx context.Context, submission types.Submission, message string) error {
	submission.Verdict = types.VerdictSystemError
	submission.Message = message
	if _, err := w.submissionService.Update(ctx, submission); err != nil {
		log.Printf("worker: failed to persist system error for submission %d: %v", submission.ID, err)
	}
	return nil
}

func (w *Worker) persist(ctx context.Context, submission types.Submission, resp judge.Response) error {
	submission.Verdict = mapVerdict(resp.Verdict)
	submission.TestsPassed = resp.PassedCount
	submission.TestsTotal = resp.TotalCount
	submission.Message = resp.SummaryMessage
	if resp.Error != nil {
		submission.Message = *resp.Error
	}
	if resp.TotalCount > 0 {
		submission.Score = resp.PassedCount * 100 / resp.TotalCount
	}
	submission.TestcaseResults = make([]types.TestcaseResult, 0, len(resp.Results))
	for _, result := range resp.Results {
		testcaseID, _ := strconv.Atoi(result.ID)
		tr := types.TestcaseResult{
			SubmissionID: int64(submission.ID),
			TestcaseID:   testcaseID,
			Verdict:      mapCaseVerdict(result.Pass, resp.Verdict),
		}
		if result.RuntimeMS != nil {
			tr.CPUTime = *result.RuntimeMS
		}
		if result.Error != nil {
			tr.ErrorMessage = *result.Error
		}
		submission.TestcaseResults = append(submission.TestcaseResults, tr)
	}

	if _, err := w.submissionService.Update(ctx, submission); err != nil {
		return fmt.Errorf("persist submission %d: %w", submission.ID, err)
	}
	return nil
}

func mapVerdict(v judge.Verdict) types.Verdict {
	switch v {
	case judge.VerdictAccepted:
		return types.VerdictAccepted
	case judge.VerdictWrongAnswer:
		return types.VerdictWrongAnswer
	case judge.VerdictTimeLimitExceeded:
		return types.VerdictTimeLimitExceeded
	case judge.VerdictCompilationError:
		return types.VerdictCompilationError
	case judge.VerdictRuntimeError:
		return types.VerdictRuntimeError
	default:
		return types.VerdictSystemError
	}
}

func mapCaseVerdict(pass bool, overall judge.Verdict) types.Verdict {
	if pass {
		return types.VerdictAccepted
	}
	if overall == judge.VerdictTimeLimitExceeded || overall == judge.VerdictRuntimeError || overall == judge.VerdictCompilationError {
		return mapVerdict(overall)
	}
	return types.VerdictWrongAnswer
}
