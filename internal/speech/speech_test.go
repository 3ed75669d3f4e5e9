package speech

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestSplitCommand(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/x", nil }
	missing := func(string) (string, error) { return "", exec.ErrNotFound }

	argv, err := splitCommand("espeak-ng -v ru -s 150", found)
	if err != nil {
		t.Fatalf("splitCommand() error = %v", err)
	}
	if len(argv) != 5 || argv[0] != "espeak-ng" {
		t.Errorf("argv = %v", argv)
	}

	_, err = splitCommand("espeak-ng", missing)
	if !errors.Is(err, domain.ErrDependencyMissing) {
		t.Errorf("error = %v, want ErrDependencyMissing", err)
	}
	if domain.KindOf(err) != domain.FailureDependencyUnavailable {
		t.Errorf("KindOf() = %q", domain.KindOf(err))
	}

	if _, err := splitCommand("   ", found); err == nil {
		t.Error("empty command should fail")
	}
}

func TestCommandSpeaker_Say(t *testing.T) {
	requireBinary(t, "true")

	s, err := NewCommandSpeaker("true", zap.NewNop())
	if err != nil {
		t.Fatalf("NewCommandSpeaker() error = %v", err)
	}
	if err := s.Say(context.Background(), "Проверьте ФН"); err != nil {
		t.Errorf("Say() error = %v", err)
	}
	if err := s.Say(context.Background(), "   "); err != nil {
		t.Errorf("Say(blank) error = %v", err)
	}
}

func TestCommandSpeaker_CommandFails(t *testing.T) {
	requireBinary(t, "false")

	s, _ := NewCommandSpeaker("false", zap.NewNop())
	if err := s.Say(context.Background(), "текст"); err == nil {
		t.Error("Say() should report failing command")
	}
}

// sleepSpeaker спит столько секунд, сколько пришло на stdin
func sleepSpeaker(t *testing.T) *CommandSpeaker {
	t.Helper()
	requireBinary(t, "sh")
	requireBinary(t, "sleep")
	return &CommandSpeaker{argv: []string{"sh", "-c", `read d; exec sleep "$d"`}, logger: zap.NewNop()}
}

func TestCommandSpeaker_TextGoesToStdin(t *testing.T) {
	requireBinary(t, "sh")

	// команда успешна, только если аргументов нет, а строка пришла на stdin целиком
	s := &CommandSpeaker{
		argv:   []string{"sh", "-c", `[ "$#" -eq 0 ] && read line && [ "$line" = "-v ошибка ФН" ]`},
		logger: zap.NewNop(),
	}

	if err := s.Say(context.Background(), "  -v ошибка ФН "); err != nil {
		t.Errorf("Say() error = %v, text must not become an argument", err)
	}
	if err := s.Say(context.Background(), "другой текст"); err == nil {
		t.Error("Say() should fail when stdin does not match")
	}
}

func TestCommandSpeaker_StopInterrupts(t *testing.T) {
	s := sleepSpeaker(t)

	done := make(chan error, 1)
	go func() { done <- s.Say(context.Background(), "10") }()

	time.Sleep(100 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Say() after Stop error = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stop() did not interrupt Say()")
	}
}

func TestCommandSpeaker_NewSayStopsPrevious(t *testing.T) {
	s := sleepSpeaker(t)

	first := make(chan error, 1)
	go func() { first <- s.Say(context.Background(), "10") }()
	time.Sleep(100 * time.Millisecond)

	if err := s.Say(context.Background(), "0"); err != nil {
		t.Errorf("second Say() error = %v", err)
	}

	select {
	case <-first:
	case <-time.After(3 * time.Second):
		t.Fatal("previous utterance was not stopped")
	}
}

func TestAmbient_MissingFileIsNoop(t *testing.T) {
	requireBinary(t, "sleep")

	a, err := NewAmbient("sleep", filepath.Join(t.TempDir(), "ambient.mp3"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewAmbient() error = %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if a.Running() {
		t.Error("ambient should not run without file")
	}
	a.Stop()
}

func TestAmbient_StartStop(t *testing.T) {
	requireBinary(t, "tail")

	file := filepath.Join(t.TempDir(), "ambient.mp3")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// tail -f не завершается сам, как плеер с --loop=inf
	a, err := NewAmbient("tail -f", file, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAmbient() error = %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.Running() {
		t.Error("ambient should be running")
	}

	a.Stop()
	if a.Running() {
		t.Error("ambient should stop")
	}
	a.Stop()
}

func TestNop(t *testing.T) {
	var n Nop
	if err := n.Say(context.Background(), "x"); err != nil {
		t.Error(err)
	}
	if err := n.Start(context.Background()); err != nil {
		t.Error(err)
	}
	n.Stop()
}
