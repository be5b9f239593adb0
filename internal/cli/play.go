package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/client"
	"scholarspath-quiz/internal/config"
	"scholarspath-quiz/internal/domain"
)

type playOptions struct {
	server  string
	level   string
	class   string
	subject string
}

// NewPlayCmd runs an attempt in the terminal against a running quiz server.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		Long: `Take a quiz in the terminal.

Type an option letter to answer the current question, "next" or "prev" to move,
"submit" to finish and "quit" to leave without submitting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			server := opts.server
			if server == "" {
				server = "http://localhost:" + cfg.Server.Port
			}
			remote := client.New(server, 10*time.Second)
			// Keep logs off the quiz screen.
			engine := app.NewEngine(remote, remote, zerolog.Nop())
			p := newPlayer(engine, os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
			return p.run(cmd.Context(), domain.Selection{Level: opts.level, Class: opts.class, Subject: opts.subject})
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "", "quiz server base URL (default http://localhost:<server.port>)")
	cmd.Flags().StringVar(&opts.level, "level", "", "level, e.g. primary")
	cmd.Flags().StringVar(&opts.class, "class", "", "class, e.g. basic-4")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "subject, e.g. science")
	return cmd
}

type submission struct {
	report  domain.Report
	trigger domain.SubmitTrigger
}

// player drives one attempt from line-based input.
type player struct {
	engine      *app.Engine
	in          io.Reader
	out         io.Writer
	interactive bool

	mu sync.Mutex
}

func newPlayer(engine *app.Engine, in io.Reader, out io.Writer, interactive bool) *player {
	return &player{engine: engine, in: in, out: out, interactive: interactive}
}

func (p *player) run(ctx context.Context, sel domain.Selection) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	submitted := make(chan submission, 1)
	attempt, err := p.engine.Begin(ctx, sel, app.Hooks{
		OnTick: p.tick,
		OnSubmitted: func(report domain.Report, trigger domain.SubmitTrigger) {
			submitted <- submission{report: report, trigger: trigger}
		},
	})
	if err != nil {
		return fmt.Errorf("start quiz %s: %w", sel, err)
	}
	defer attempt.Close()

	if cfg := attempt.Config(); cfg.TimerEnabled {
		p.printf("Time limit: %s\n", app.FormatRemaining(cfg.SecondsPerQuestion))
	}
	p.render(attempt.View())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		// A manual submit reports synchronously; drain it before reading more input.
		select {
		case s := <-submitted:
			p.printReport(s)
			return nil
		default:
		}

		select {
		case s := <-submitted:
			p.printReport(s)
			return nil
		case line, ok := <-lines:
			if !ok || line == "quit" {
				p.printf("Left without submitting.\n")
				return nil
			}
			p.command(attempt, line)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *player) command(attempt *app.Attempt, line string) {
	var err error
	switch strings.ToLower(line) {
	case "":
		return
	case "next":
		err = attempt.Next()
	case "prev", "previous":
		err = attempt.Previous()
	case "submit":
		// The report arrives through OnSubmitted.
		attempt.Submit()
		return
	default:
		if len(line) != 1 {
			p.printf("Unknown command %q\n", line)
			return
		}
		err = attempt.Select(domain.Label(strings.ToUpper(line)))
	}
	if err != nil {
		p.printf("%v\n", err)
		return
	}
	p.render(attempt.View())
}

// tick redraws the clock in place on a terminal; otherwise it prints each minute and
// the last ten seconds.
func (p *player) tick(remaining string) {
	if p.interactive {
		p.printf("\r\033[K[%s] > ", remaining)
		return
	}
	if strings.HasSuffix(remaining, ":00") || strings.HasPrefix(remaining, "00:0") {
		p.printf("Time left: %s\n", remaining)
	}
}

func (p *player) render(view domain.SessionView) {
	if view.Question == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d of %d (%d answered)\n%s\n", view.Index+1, view.Total, view.Answered, view.Question.Text)
	for _, opt := range view.Question.Options {
		marker := " "
		if opt.Label == view.Question.Selected {
			marker = "*"
		}
		fmt.Fprintf(&b, " %s %s. %s\n", marker, opt.Label, opt.Text)
	}
	p.printf("%s", b.String())
}

func (p *player) printReport(s submission) {
	var b strings.Builder
	if s.trigger == domain.TriggerTimer {
		b.WriteString("\nTime is up! Your answers were submitted.\n")
	}
	r := s.report
	fmt.Fprintf(&b, "\nScore: %d/%d (%.0f%%)\n%s\n", r.Score, r.Total, r.Percentage, r.Tier.Message())
	for _, e := range r.Entries {
		answer := string(e.UserAnswer)
		if answer == "" {
			answer = "-"
		}
		result := "wrong"
		if e.IsCorrect {
			result = "correct"
		}
		fmt.Fprintf(&b, "\n%d. %s\n   Your answer: %s (%s), correct answer: %s\n   %s\n",
			e.Index+1, e.Question, answer, result, e.CorrectAnswer, e.Explanation)
	}
	p.printf("%s", b.String())
}

func (p *player) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
