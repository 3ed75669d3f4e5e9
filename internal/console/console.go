package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/service"
	"github.com/kitbuilder587/ikar-assistant/internal/speech"
)

const (
	welcomeMessage = "Добро пожаловать в ИКАР-Ассистент! Чем я могу помочь вам сегодня?"
	waitingMessage = "Поиск решения, пожалуйста подождите..."
	emptyInput     = "Пожалуйста, введите запрос"
	noHistory      = "История пуста."
	noResult       = "Сначала выполните поиск."

	helpMessage = `Введите описание проблемы, чтобы найти решение.

Команды:
/history - последние запросы
/show N - показать ответ из истории
/open N - открыть ссылку N из последнего ответа
/speak - прочитать последний ответ вслух
/stop - остановить чтение
/help - эта справка
/quit - выход`

	// оболочка одна, ключ для диспетчера постоянный
	shellKey = "console"
	prompt   = "> "
)

type Deps struct {
	Dispatcher *service.Dispatcher
	History    service.HistoryService
	Speaker    speech.Speaker
	Browser    Browser
	Logger     *zap.Logger
	In         io.Reader
	Out        io.Writer
}

// Shell - терминальная оболочка. Всё состояние (последний ответ, список истории)
// меняется только в горутине Run.
type Shell struct {
	dispatcher *service.Dispatcher
	history    service.HistoryService
	speaker    speech.Speaker
	browser    Browser
	logger     *zap.Logger
	in         io.Reader
	out        io.Writer

	current *domain.SearchOutcome
	entries []domain.HistoryEntry

	speakWG sync.WaitGroup
}

func New(deps Deps) *Shell {
	if deps.Speaker == nil {
		deps.Speaker = speech.Nop{}
	}
	if deps.Browser == nil {
		deps.Browser = SystemBrowser{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Shell{
		dispatcher: deps.Dispatcher,
		history:    deps.History,
		speaker:    deps.Speaker,
		browser:    deps.Browser,
		logger:     deps.Logger,
		in:         deps.In,
		out:        deps.Out,
	}
}

// Run читает ввод до /quit, конца ввода или отмены ctx. Незавершённый поиск
// при конце ввода дожидается доставки.
func (s *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go s.readLines(ctx, lines, readErr)

	defer s.speakWG.Wait()
	defer s.speaker.Stop()

	s.println(welcomeMessage)
	s.prompt()

	inputDone := false
	for {
		if inputDone && !s.dispatcher.Busy(shellKey) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				lines = nil
				inputDone = true
				continue
			}
			if quit := s.handleLine(ctx, line); quit {
				return nil
			}

		case err := <-readErr:
			if err != nil {
				s.logger.Error("input read failed", zap.Error(err))
				return err
			}

		case p := <-s.dispatcher.Pending():
			d, ok := s.dispatcher.Accept(ctx, p)
			if !ok {
				continue
			}
			s.deliver(d)
			if !inputDone {
				s.prompt()
			}
		}
	}
}

func (s *Shell) readLines(ctx context.Context, lines chan<- string, readErr chan<- error) {
	defer close(lines)
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
}

func (s *Shell) handleLine(ctx context.Context, line string) bool {
	text := strings.TrimSpace(line)

	if !strings.HasPrefix(text, "/") {
		s.submit(ctx, text)
		return false
	}

	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		return true
	case "/help":
		s.println(helpMessage)
	case "/history":
		s.showHistory(ctx)
	case "/show":
		s.showEntry(ctx, arg)
	case "/open":
		s.openLink(arg)
	case "/speak":
		s.speak(ctx)
	case "/stop":
		s.speaker.Stop()
	default:
		s.println("Неизвестная команда. Введите /help для справки.")
	}
	s.prompt()
	return false
}

func (s *Shell) submit(ctx context.Context, query string) {
	if query == "" {
		s.println(emptyInput)
		s.prompt()
		return
	}

	if _, err := s.dispatcher.Submit(ctx, shellKey, query); err != nil {
		s.println(mapErrorToMessage(err))
		s.prompt()
		return
	}
	s.println(waitingMessage)
}

func (s *Shell) deliver(d *service.Delivery) {
	if d.Err != nil {
		s.logger.Error("search failed", zap.Error(d.Err))
		s.println(mapErrorToMessage(d.Err))
		return
	}

	s.current = d.Outcome
	s.println(d.Outcome.ResponseText)

	for i, l := range d.Outcome.Links {
		s.printf("  [%d] %s\n", i+1, l.URL)
	}

	if d.RecordErr != nil {
		s.println(mapErrorToMessage(d.RecordErr))
	}
}

func (s *Shell) showHistory(ctx context.Context) {
	entries, err := s.history.Recent(ctx)
	if err != nil {
		s.println(mapErrorToMessage(err))
		return
	}
	s.entries = entries

	if len(entries) == 0 {
		s.println(noHistory)
		return
	}
	for i := range entries {
		s.printf("%d. %s\n", i+1, entries[i].Preview())
	}
}

// showEntry - N это номер в последнем показанном списке /history
func (s *Shell) showEntry(ctx context.Context, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		s.println("Укажите номер записи: /show N")
		return
	}

	if s.entries == nil {
		entries, err := s.history.Recent(ctx)
		if err != nil {
			s.println(mapErrorToMessage(err))
			return
		}
		s.entries = entries
	}
	if n > len(s.entries) {
		s.println("Нет записи с таким номером.")
		return
	}

	e := s.entries[n-1]
	s.printf("Запрос: %s\n\n%s\n", e.Query, e.Response)
}

func (s *Shell) openLink(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		s.println("Укажите номер ссылки: /open N")
		return
	}
	if s.current == nil {
		s.println(noResult)
		return
	}

	link, ok := s.current.Link(n)
	if !ok {
		s.println("Нет ссылки с таким номером.")
		return
	}

	if err := s.browser.Open(link.URL); err != nil {
		s.logger.Warn("failed to open link", zap.String("url", link.URL), zap.Error(err))
		s.printf("Не удалось открыть ссылку: %s\n", link.URL)
		return
	}
	s.printf("Открываю: %s\n", link.URL)
}

// speak не блокирует цикл, новое чтение прерывает предыдущее внутри Speaker
func (s *Shell) speak(ctx context.Context) {
	if s.current == nil {
		s.println(noResult)
		return
	}

	text := s.current.Answer
	s.speakWG.Add(1)
	go func() {
		defer s.speakWG.Done()
		if err := s.speaker.Say(ctx, text); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("speech failed", zap.Error(err))
		}
	}()
}

func (s *Shell) println(text string) {
	fmt.Fprintln(s.out, text)
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) prompt() {
	fmt.Fprint(s.out, prompt)
}
