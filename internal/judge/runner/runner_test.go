package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"codepractice/internal/judge/language"
	"codepractice/internal/judge/model"
	"codepractice/internal/judge/poller"
)

// fakeJudge answers every submission through respond, keyed by stdin.
type fakeJudge struct {
	mu        sync.Mutex
	respond   func(code, stdin string) (model.ExecutionResult, error)
	submitErr map[string]error
	submitted []string
	codes     []string
	runs      map[string]model.ExecutionResult
	inFlight  int
	maxFlight int
	delay     time.Duration
}

func newFakeJudge(respond func(code, stdin string) (model.ExecutionResult, error)) *fakeJudge {
	return &fakeJudge{respond: respond, runs: make(map[string]model.ExecutionResult), submitErr: map[string]error{}}
}

func (f *fakeJudge) Submit(_ context.Context, code string, _ language.Language, stdin string) (string, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, stdin)
	f.codes = append(f.codes, code)
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	err := f.submitErr[stdin]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	if err != nil {
		return "", err
	}
	res, err := f.respond(code, stdin)
	if err != nil {
		return "", err
	}
	token := fmt.Sprintf("tok-%s", stdin)
	f.mu.Lock()
	f.runs[token] = res
	f.mu.Unlock()
	return token, nil
}

func (f *fakeJudge) Fetch(_ context.Context, token string) (model.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.runs[token]
	if !ok {
		return model.ExecutionResult{}, errors.New("unknown token")
	}
	return res, nil
}

func (f *fakeJudge) submittedInputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

func accepted(stdout string) model.ExecutionResult {
	return model.ExecutionResult{
		Status: model.Status{ID: model.StatusAccepted, Description: "Accepted"},
		Stdout: stdout,
		Time:   "0.010",
		Memory: 1024,
	}
}

// echo accepts every run and prints its input.
func echo(_ string, stdin string) (model.ExecutionResult, error) {
	return accepted(stdin + "\n"), nil
}

func newRunner(judge *fakeJudge, parallelism int) *Runner {
	p := poller.New(judge, &poller.FakeClock{}, poller.Config{MaxAttempts: 3})
	return New(judge, p, Config{Parallelism: parallelism})
}

func prepared(code string) language.Prepared {
	return language.Prepared{Code: code, Language: language.Python}
}

func TestRunAllPreservesOrderAndLength(t *testing.T) {
	t.Parallel()
	for _, parallelism := range []int{0, 1, 4} {
		judge := newFakeJudge(echo)
		judge.delay = time.Millisecond
		r := newRunner(judge, parallelism)

		cases := make([]model.TestCase, 12)
		for i := range cases {
			in := fmt.Sprintf("case-%02d", i)
			cases[i] = model.TestCase{Input: in, ExpectedOutput: in}
		}

		verdicts := r.RunAll(context.Background(), prepared("x"), cases)
		if len(verdicts) != len(cases) {
			t.Fatalf("parallelism %d: got %d verdicts for %d cases", parallelism, len(verdicts), len(cases))
		}
		for i, v := range verdicts {
			if v.Input != cases[i].Input || !v.Passed {
				t.Fatalf("parallelism %d: verdict %d = %+v", parallelism, i, v)
			}
		}
	}
}

func TestRunAllRespectsParallelismLimit(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(echo)
	judge.delay = 5 * time.Millisecond
	r := newRunner(judge, 2)

	cases := make([]model.TestCase, 8)
	for i := range cases {
		cases[i] = model.TestCase{Input: fmt.Sprint(i), ExpectedOutput: fmt.Sprint(i)}
	}
	r.RunAll(context.Background(), prepared("x"), cases)
	if judge.maxFlight > 2 {
		t.Fatalf("expected at most 2 concurrent submissions, saw %d", judge.maxFlight)
	}
}

func TestRunAllIsolatesGatewayFailure(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(echo)
	judge.submitErr["b"] = errors.New("judge unreachable")
	r := newRunner(judge, 1)

	cases := []model.TestCase{
		{Input: "a", ExpectedOutput: "a"},
		{Input: "b", ExpectedOutput: "b"},
		{Input: "c", ExpectedOutput: "c"},
	}
	verdicts := r.RunAll(context.Background(), prepared("x"), cases)
	if len(verdicts) != 3 {
		t.Fatalf("expected 3 verdicts, got %d", len(verdicts))
	}
	if !verdicts[0].Passed || !verdicts[2].Passed {
		t.Fatalf("siblings of the failing case must still be judged: %+v", verdicts)
	}
	failed := verdicts[1]
	if failed.Passed || failed.Status != model.StatusError || !strings.Contains(failed.Stderr, "judge unreachable") {
		t.Fatalf("unexpected failed verdict: %+v", failed)
	}
	if got := judge.submittedInputs(); len(got) != 3 {
		t.Fatalf("every case should be dispatched, got %v", got)
	}
}

func TestRunAllEmpty(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(echo)
	if got := newRunner(judge, 3).RunAll(context.Background(), prepared("x"), nil); len(got) != 0 {
		t.Fatalf("expected no verdicts, got %d", len(got))
	}
}

func TestRunUntilFailureShortCircuits(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(func(code, stdin string) (model.ExecutionResult, error) {
		if stdin == "2" {
			return accepted("wrong\n"), nil
		}
		return accepted(stdin), nil
	})
	r := newRunner(judge, 4)

	cases := []model.TestCase{
		{Input: "1", ExpectedOutput: "1"},
		{Input: "2", ExpectedOutput: "2"},
		{Input: "3", ExpectedOutput: "3"},
	}
	verdicts, failed := r.RunUntilFailure(context.Background(), prepared("x"), cases)
	if failed != 1 {
		t.Fatalf("expected case index 1 to fail, got %d", failed)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	for _, in := range judge.submittedInputs() {
		if in == "3" {
			t.Fatalf("case 3 must never be dispatched")
		}
	}
}

func TestRunUntilFailureAllPass(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(echo)
	cases := []model.TestCase{{Input: "1", ExpectedOutput: "1"}, {Input: "2", ExpectedOutput: "2"}}
	verdicts, failed := newRunner(judge, 1).RunUntilFailure(context.Background(), prepared("x"), cases)
	if failed != -1 || len(verdicts) != 2 {
		t.Fatalf("failed=%d verdicts=%d", failed, len(verdicts))
	}
}

func TestRunUntilFailureGatewayErrorIsFailure(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(echo)
	judge.submitErr["1"] = errors.New("timeout")
	cases := []model.TestCase{{Input: "1", ExpectedOutput: "1"}, {Input: "2", ExpectedOutput: "2"}}
	verdicts, failed := newRunner(judge, 1).RunUntilFailure(context.Background(), prepared("x"), cases)
	if failed != 0 || len(verdicts) != 1 || verdicts[0].Err == nil {
		t.Fatalf("gateway error should short-circuit: failed=%d verdicts=%+v", failed, verdicts)
	}
}

func TestTrimmedEquality(t *testing.T) {
	t.Parallel()
	cases := []struct {
		stdout   string
		expected string
		passed   bool
	}{
		{"5\n", "5", true},
		{"5 ", "6", false},
	}
	for _, tc := range cases {
		out := tc.stdout
		judge := newFakeJudge(func(string, string) (model.ExecutionResult, error) { return accepted(out), nil })
		verdicts := newRunner(judge, 1).RunAll(context.Background(), prepared("x"),
			[]model.TestCase{{Input: "in", ExpectedOutput: tc.expected}})
		if verdicts[0].Passed != tc.passed {
			t.Fatalf("stdout %q vs %q: passed=%v", tc.stdout, tc.expected, verdicts[0].Passed)
		}
	}
}

func TestNonTerminalAtBudgetFails(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(func(string, string) (model.ExecutionResult, error) {
		return model.ExecutionResult{Status: model.Status{ID: model.StatusProcessing, Description: "Processing"}}, nil
	})
	verdicts := newRunner(judge, 1).RunAll(context.Background(), prepared("x"),
		[]model.TestCase{{Input: "", ExpectedOutput: ""}})
	if verdicts[0].Passed || verdicts[0].Status != "Processing" {
		t.Fatalf("inconclusive run must not pass: %+v", verdicts[0])
	}
}

func TestTwoSumEndToEnd(t *testing.T) {
	t.Parallel()
	code := `function solution(input) {
    const [numsLine, targetLine] = input.split("\n");
    const nums = JSON.parse(numsLine);
    const target = Number(targetLine);
    const seen = new Map();
    for (let i = 0; i < nums.length; i++) {
        if (seen.has(target - nums[i])) return [seen.get(target - nums[i]), i];
        seen.set(nums[i], i);
    }
    return [];
}`
	judge := newFakeJudge(func(src, stdin string) (model.ExecutionResult, error) {
		if !strings.Contains(src, "solution(__input)") {
			return model.ExecutionResult{}, errors.New("driver missing")
		}
		if stdin != "[2,7,11,15]\n9" {
			return model.ExecutionResult{}, fmt.Errorf("unexpected stdin %q", stdin)
		}
		return accepted("[0,1]\n"), nil
	})
	r := newRunner(judge, 1)

	prog := language.NewAdapter(language.WrapSniff).Prepare(code, language.JavaScript)
	verdicts := r.RunAll(context.Background(), prog, []model.TestCase{
		{Input: "[2,7,11,15]\n9", ExpectedOutput: "[0,1]"},
	})
	if len(verdicts) != 1 {
		t.Fatalf("expected one verdict, got %d", len(verdicts))
	}
	v := verdicts[0]
	if !v.Passed || strings.TrimSpace(v.ActualOutput) != "[0,1]" {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestRunSingle(t *testing.T) {
	t.Parallel()
	judge := newFakeJudge(echo)
	res, err := newRunner(judge, 1).RunSingle(context.Background(), prepared("x"), "hello")
	if err != nil || res.Stdout != "hello\n" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}
