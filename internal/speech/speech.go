package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

// Speaker озвучивает текст. Say блокирует до конца фразы; новый Say прерывает предыдущий.
type Speaker interface {
	Say(ctx context.Context, text string) error
	Stop()
}

// splitCommand разбивает строку команды из конфига и проверяет, что бинарник есть в PATH
func splitCommand(command string, lookPath func(string) (string, error)) ([]string, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, domain.NewFailure(domain.FailureDependencyUnavailable, "speech command", errors.New("empty command"))
	}
	if _, err := lookPath(argv[0]); err != nil {
		return nil, domain.NewFailure(domain.FailureDependencyUnavailable, argv[0],
			fmt.Errorf("%w: %v", domain.ErrDependencyMissing, err))
	}
	return argv, nil
}

type CommandSpeaker struct {
	argv   []string
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewCommandSpeaker - текст подается на stdin команды (espeak-ng --stdin, say, RHVoice-test),
// поэтому ответ, начинающийся с "-", не разбирается как флаг
func NewCommandSpeaker(command string, logger *zap.Logger) (*CommandSpeaker, error) {
	argv, err := splitCommand(command, exec.LookPath)
	if err != nil {
		return nil, err
	}
	return &CommandSpeaker{argv: argv, logger: logger}, nil
}

func (s *CommandSpeaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stdin = strings.NewReader(text + "\n")

	err := cmd.Run()
	if ctx.Err() != nil {
		// прервали через Stop или новым Say
		return nil
	}
	if err != nil {
		s.logger.Warn("speech command failed", zap.String("command", s.argv[0]), zap.Error(err))
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Ambient крутит фоновый звук внешним плеером, пока не вызван Stop
type Ambient struct {
	argv   []string
	file   string
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAmbient(command, file string, logger *zap.Logger) (*Ambient, error) {
	argv, err := splitCommand(command, exec.LookPath)
	if err != nil {
		return nil, err
	}
	return &Ambient{argv: argv, file: file, logger: logger}, nil
}

// Start без файла ничего не делает
func (a *Ambient) Start(ctx context.Context) error {
	if _, err := os.Stat(a.file); err != nil {
		a.logger.Info("ambient file not found, skipping", zap.String("file", a.file))
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	args := append(append([]string{}, a.argv[1:]...), a.file)
	cmd := exec.CommandContext(ctx, a.argv[0], args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start ambient player: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			a.logger.Warn("ambient player exited", zap.Error(err))
		}
	}()

	a.cancel = cancel
	a.done = done
	a.logger.Info("ambient audio started", zap.String("file", a.file))
	return nil
}

func (a *Ambient) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return false
	default:
		return true
	}
}

func (a *Ambient) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

type Nop struct{}

func (Nop) Say(context.Context, string) error { return nil }
func (Nop) Stop()                             {}
func (Nop) Start(context.Context) error       { return nil }

var (
	_ Speaker = (*CommandSpeaker)(nil)
	_ Speaker = Nop{}
)
