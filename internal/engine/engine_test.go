package engine

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/deixis/stevedore/internal/command"
)

// fakeSpawner records every spawn and replays scripted results.
type fakeSpawner struct {
	calls   [][]string // name followed by args, per call
	results []*SpawnResult
}

func (f *fakeSpawner) Spawn(_ context.Context, name string, args []string) (*SpawnResult, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(f.results) == 0 {
		return &SpawnResult{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func newTestSession(t *testing.T, target Target, sp Spawner) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	s := NewSession(target, WithOutput(&out, &errOut), WithSpawner(sp))
	return s, &out, &errOut
}

func TestExec_LocalArgv(t *testing.T) {
	sp := &fakeSpawner{}
	s, _, _ := newTestSession(t, Target{}, sp)

	_, err := Exec(context.Background(), s, command.Raw{Line: "echo hi"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}

	want := []string{"bash", "-c", "echo hi"}
	if len(sp.calls) != 1 || !reflect.DeepEqual(sp.calls[0], want) {
		t.Errorf("spawned %v, want %v", sp.calls, want)
	}
}

func TestExec_RemoteArgv(t *testing.T) {
	sp := &fakeSpawner{}
	s, _, _ := newTestSession(t, Target{Host: "example.com", Port: 2222}, sp)

	_, err := Exec(context.Background(), s, command.Raw{Line: "echo hi"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}

	want := []string{"ssh", "example.com", "-p", "2222", "echo hi"}
	if len(sp.calls) != 1 || !reflect.DeepEqual(sp.calls[0], want) {
		t.Errorf("spawned %v, want %v", sp.calls, want)
	}
}

func TestExec_ParseReceivesStdoutUnaltered(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{Stdout: "hi\n"}}}
	s, _, _ := newTestSession(t, Target{}, sp)

	got, err := Exec(context.Background(), s, command.Raw{Line: "echo hi"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got != "hi\n" {
		t.Errorf("parsed result = %q, want %q", got, "hi\n")
	}
}

func TestExecRaw_Banner(t *testing.T) {
	sp := &fakeSpawner{}
	s, out, _ := newTestSession(t, Target{}, sp)

	if _, err := s.ExecRaw(context.Background(), "true", nil, "true"); err != nil {
		t.Fatalf("ExecRaw: %v", err)
	}

	lines := strings.Split(out.String(), "\n")
	if len(lines) < 2 {
		t.Fatalf("output %q, want banner and command lines", out.String())
	}
	if !strings.HasPrefix(lines[0], "*** localhost") {
		t.Errorf("banner = %q, want prefix %q", lines[0], "*** localhost")
	}
	if len(lines[0]) != 75 {
		t.Errorf("banner width = %d, want 75", len(lines[0]))
	}
	if !strings.HasSuffix(lines[0], "*") {
		t.Errorf("banner = %q, want * padding", lines[0])
	}
	if lines[1] != "$ true" {
		t.Errorf("command line = %q, want %q", lines[1], "$ true")
	}
}

func TestExecRaw_RemoteBannerLabel(t *testing.T) {
	sp := &fakeSpawner{}
	s, out, _ := newTestSession(t, Target{Host: "example.com", Port: 22}, sp)

	if _, err := s.ExecRaw(context.Background(), "true", nil, "true"); err != nil {
		t.Fatalf("ExecRaw: %v", err)
	}
	if !strings.HasPrefix(out.String(), "*** example.com:22") {
		t.Errorf("banner = %q, want label example.com:22", out.String())
	}
}

func TestExecRaw_EchoesOutput(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{Stdout: "out text\n", Stderr: "err text\n"}}}
	s, out, _ := newTestSession(t, Target{}, sp)

	if _, err := s.ExecRaw(context.Background(), "x", nil, "x"); err != nil {
		t.Fatalf("ExecRaw: %v", err)
	}
	if !strings.Contains(out.String(), "out text\n") {
		t.Errorf("output %q, want captured stdout echoed", out.String())
	}
	if !strings.Contains(out.String(), "err text\n") {
		t.Errorf("output %q, want captured stderr echoed", out.String())
	}
}

func TestExecRaw_SilentWhenNoOutput(t *testing.T) {
	sp := &fakeSpawner{}
	s, out, _ := newTestSession(t, Target{}, sp)

	if _, err := s.ExecRaw(context.Background(), "true", nil, "true"); err != nil {
		t.Fatalf("ExecRaw: %v", err)
	}
	// Banner plus command line only; empty streams print nothing.
	if got := strings.Count(out.String(), "\n"); got != 2 {
		t.Errorf("printed %d lines (%q), want 2", got, out.String())
	}
}

func TestExecRaw_NonZeroExitFails(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{ExitCode: 3}}}
	s, _, _ := newTestSession(t, Target{}, sp)

	_, err := s.ExecRaw(context.Background(), "x", nil, "x")
	f, ok := AsFailure(err)
	if !ok {
		t.Fatalf("error = %v, want a Failure", err)
	}
	if f.Code != 3 {
		t.Errorf("Code = %d, want 3", f.Code)
	}
	if f.Message != "" {
		t.Errorf("Message = %q, want no message for automatic failure", f.Message)
	}
}

func TestExecRaw_ShortCircuitsAfterFailure(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{ExitCode: 2}}}
	s, _, _ := newTestSession(t, Target{}, sp)

	ctx := context.Background()
	if _, err := s.ExecRaw(ctx, "x", nil, "x"); err == nil {
		t.Fatal("first ExecRaw: want failure")
	}
	if _, err := s.ExecRaw(ctx, "y", nil, "y"); err == nil {
		t.Fatal("second ExecRaw: want stored failure")
	}
	if len(sp.calls) != 1 {
		t.Errorf("spawned %d processes after failure, want 1", len(sp.calls))
	}
}

func TestFail_WriteOnce(t *testing.T) {
	s := NewSession(Target{})

	first := s.Fail(3, "boom")
	second := s.Fail(7, "later")

	f, _ := AsFailure(first)
	if f.Code != 3 || f.Message != "boom" {
		t.Errorf("first failure = %+v, want code 3 message boom", f)
	}
	g, _ := AsFailure(second)
	if g.Code != 3 {
		t.Errorf("second Fail returned code %d, want the original 3", g.Code)
	}
}

func TestRun_Success(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{Stdout: "hi\n"}}}
	var out, errOut bytes.Buffer

	var parsed string
	f := Run(context.Background(), Target{}, func(ctx context.Context, s *Session) error {
		var err error
		parsed, err = Exec(ctx, s, command.Raw{Line: "echo hi"})
		return err
	}, WithOutput(&out, &errOut), WithSpawner(sp))

	if f != nil {
		t.Fatalf("Run = %+v, want success", f)
	}
	if parsed != "hi\n" {
		t.Errorf("produced value = %q, want %q", parsed, "hi\n")
	}
	if !strings.Contains(out.String(), "Success.\n") {
		t.Errorf("output %q, want Success. notice", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("error stream %q, want empty", errOut.String())
	}
}

func TestRun_FailurePropagatesExitCode(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{ExitCode: 3}}}
	var out, errOut bytes.Buffer

	f := Run(context.Background(), Target{}, func(ctx context.Context, s *Session) error {
		_, err := Exec(ctx, s, command.Raw{Line: "echo hi"})
		return err
	}, WithOutput(&out, &errOut), WithSpawner(sp))

	if f == nil {
		t.Fatal("Run = nil, want failure")
	}
	if f.Code != 3 {
		t.Errorf("Code = %d, want 3", f.Code)
	}
	if f.Message != "" {
		t.Errorf("Message = %q, want none", f.Message)
	}
	if strings.Contains(out.String(), "Success.") {
		t.Errorf("output %q, must not report success", out.String())
	}
}

func TestRun_StopsAtFirstFailingStep(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{}, {ExitCode: 5}, {}}}

	var issued int
	f := Run(context.Background(), Target{}, func(ctx context.Context, s *Session) error {
		for _, line := range []string{"a", "b", "c"} {
			issued++
			if _, err := Exec(ctx, s, command.Raw{Line: line}); err != nil {
				return err
			}
		}
		return nil
	}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}), WithSpawner(sp))

	if f == nil || f.Code != 5 {
		t.Fatalf("Run = %+v, want failure code 5", f)
	}
	if issued != 2 {
		t.Errorf("issued %d steps, want 2", issued)
	}
	if len(sp.calls) != 2 {
		t.Errorf("spawned %d processes, want 2", len(sp.calls))
	}
}

func TestRun_ExplicitFailMessage(t *testing.T) {
	var out, errOut bytes.Buffer

	f := Run(context.Background(), Target{}, func(ctx context.Context, s *Session) error {
		return s.Fail(9, "release directory missing")
	}, WithOutput(&out, &errOut))

	if f == nil || f.Code != 9 {
		t.Fatalf("Run = %+v, want failure code 9", f)
	}
	if !strings.Contains(errOut.String(), "release directory missing") {
		t.Errorf("error stream %q, want the failure message", errOut.String())
	}
}

func TestRun_WrapsPlainErrors(t *testing.T) {
	f := Run(context.Background(), Target{}, func(ctx context.Context, s *Session) error {
		return context.Canceled
	}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))

	if f == nil || f.Code != 1 {
		t.Fatalf("Run = %+v, want failure code 1", f)
	}
}

func TestRun_SwallowedStepErrorStillFails(t *testing.T) {
	sp := &fakeSpawner{results: []*SpawnResult{{ExitCode: 4}}}

	f := Run(context.Background(), Target{}, func(ctx context.Context, s *Session) error {
		_, _ = Exec(ctx, s, command.Raw{Line: "x"}) // error dropped
		return nil
	}, WithOutput(&bytes.Buffer{}, &bytes.Buffer{}), WithSpawner(sp))

	if f == nil || f.Code != 4 {
		t.Fatalf("Run = %+v, want recorded failure code 4", f)
	}
}

func TestTarget_Label(t *testing.T) {
	if got := (Target{}).Label(); got != "localhost" {
		t.Errorf("local Label = %q, want localhost", got)
	}
	if got := (Target{Host: "h", Port: 2222}).Label(); got != "h:2222" {
		t.Errorf("remote Label = %q, want h:2222", got)
	}
}

func TestSession_RunID(t *testing.T) {
	a := NewSession(Target{})
	b := NewSession(Target{})
	if a.RunID() == "" {
		t.Error("RunID is empty")
	}
	if a.RunID() == b.RunID() {
		t.Error("RunID not unique across sessions")
	}
}
