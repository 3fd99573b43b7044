package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codepractice/internal/cli/command"
	httpclient "codepractice/internal/cli/http"
	"codepractice/internal/cli/state"
)

type recorded struct {
	method string
	path   string
	auth   string
	trace  string
	body   map[string]interface{}
}

func newServer(t *testing.T, calls *[]recorded) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), trace: r.Header.Get("X-Trace-Id")}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		*calls = append(*calls, rec)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/submissions":
			_, _ = w.Write([]byte(`{"code":10000,"message":"Success","data":{"submissionId":9,"status":"Wrong Answer","runtime":14,"memory":512,"error":"Wrong Answer on test case 2"}}`))
		default:
			_, _ = w.Write([]byte(`{"code":10000,"message":"Success","data":{}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T, baseURL, input string, tokens *state.TokenState) (*Session, *bytes.Buffer, string) {
	t.Helper()
	statePath := filepath.Join(t.TempDir(), "state.json")
	client := httpclient.New(baseURL+"/", time.Second, func() string { return tokens.AccessToken })
	out := &bytes.Buffer{}
	return New(client, command.Registry(), tokens, statePath, false, strings.NewReader(input), out), out, statePath
}

func TestSessionSubmitWithToken(t *testing.T) {
	var calls []recorded
	srv := newServer(t, &calls)
	tokens := &state.TokenState{}
	session, out, statePath := newSession(t, srv.URL, "", tokens)
	ctx := context.Background()

	if err := session.Exec(ctx, `code submit problem_id=p1 language=python code="print(1)"`); err == nil {
		t.Fatalf("submit without token should fail locally")
	}
	if len(calls) != 0 {
		t.Fatalf("no request expected without token")
	}

	if err := session.Exec(ctx, "set token abcdefghijklmnop"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	saved, err := state.Load(statePath)
	if err != nil || saved.AccessToken != "abcdefghijklmnop" {
		t.Fatalf("token not persisted: %+v %v", saved, err)
	}

	if err := session.Exec(ctx, `code submit problem_id=p1 language=python code="print(1)"`); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	call := calls[0]
	if call.method != http.MethodPost || call.path != "/api/v1/submissions" || call.auth != "Bearer abcdefghijklmnop" || call.trace == "" {
		t.Fatalf("unexpected call: %+v", call)
	}
	if call.body["code"] != "print(1)" || call.body["problemId"] != "p1" {
		t.Fatalf("unexpected body: %v", call.body)
	}
	if !strings.Contains(out.String(), "#9 Wrong Answer  14ms  512KB") || !strings.Contains(out.String(), "Wrong Answer on test case 2") {
		t.Fatalf("missing verdict summary in output: %s", out.String())
	}

	if err := session.Exec(ctx, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if tokens.AccessToken != "" {
		t.Fatalf("token should be cleared")
	}
}

func TestSessionRunIsAnonymous(t *testing.T) {
	var calls []recorded
	srv := newServer(t, &calls)
	tokens := &state.TokenState{AccessToken: "secret-token-value"}
	session, _, _ := newSession(t, srv.URL, "", tokens)

	if err := session.Exec(context.Background(), `code run language=javascript code="console.log(1)" input="a b"`); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(calls) != 1 || calls[0].path != "/api/v1/execute" || calls[0].auth != "" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if calls[0].body["input"] != "a b" {
		t.Fatalf("unexpected body: %v", calls[0].body)
	}
}

func TestSessionPromptsMissingFields(t *testing.T) {
	var calls []recorded
	srv := newServer(t, &calls)
	tokens := &state.TokenState{}
	session, _, _ := newSession(t, srv.URL, "python\nprint(2)\n", tokens)

	if err := session.Exec(context.Background(), "code run"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(calls) != 1 || calls[0].body["language"] != "python" || calls[0].body["code"] != "print(2)" {
		t.Fatalf("prompted values not sent: %+v", calls)
	}
}

func TestSessionRunLoop(t *testing.T) {
	var calls []recorded
	srv := newServer(t, &calls)
	tokens := &state.TokenState{}
	session, out, _ := newSession(t, srv.URL, "help\nbogus cmd\nsystem health\nexit\nsystem health\n", tokens)

	session.Run(context.Background())
	if len(calls) != 1 || calls[0].path != "/healthz" {
		t.Fatalf("loop should stop at exit: %+v", calls)
	}
	if !strings.Contains(out.String(), "unknown command: bogus cmd") || !strings.Contains(out.String(), "bye") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}
