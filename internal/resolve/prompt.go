package resolve

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/exchange"
)

// ConsolePrompter asks on a line-oriented terminal. Empty answers are asked
// again; end of input gives up. Input is read by a background goroutine so a
// cancelled context interrupts a pending question.
type ConsolePrompter struct {
	mu    sync.Mutex
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan inputLine
}

type inputLine struct {
	text string
	err  error
}

// NewConsolePrompter reads answers from in and writes questions to out.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: in, out: out}
}

// AskCurrencyName asks for the full name of a currency.
func (p *ConsolePrompter) AskCurrencyName(ctx context.Context, exchangeName string, rc exchange.RawCurrency) (string, error) {
	question := fmt.Sprintf("%s lists %s (key %s) without a name. Full currency name: ", exchangeName, rc.Ticker, rc.Key.Value)
	answer, err := p.ask(ctx, question, func(s string) bool { return s != "" })
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnresolvedName, err)
	}
	return answer, nil
}

// AskCurrencyType asks whether a currency is crypto (a) or fiat (b).
func (p *ConsolePrompter) AskCurrencyType(ctx context.Context, name string) (*bool, error) {
	question := fmt.Sprintf("Is %s (a) a cryptocurrency or (b) a fiat currency? [a/b]: ", name)
	answer, err := p.ask(ctx, question, func(s string) bool {
		s = strings.ToLower(s)
		return s == "a" || s == "b"
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnknownType, err)
	}
	isCrypto := strings.ToLower(answer) == "a"
	return &isCrypto, nil
}

// readLines feeds p.lines until in is exhausted. The last value carries
// the read error, or io.EOF.
func (p *ConsolePrompter) readLines() {
	p.lines = make(chan inputLine)
	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			p.lines <- inputLine{text: scanner.Text()}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		p.lines <- inputLine{err: err}
	}()
}

func (p *ConsolePrompter) ask(ctx context.Context, question string, valid func(string) bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.once.Do(p.readLines)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := fmt.Fprint(p.out, question); err != nil {
			return "", err
		}

		var line inputLine
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l, ok := <-p.lines:
			if !ok {
				return "", io.EOF
			}
			line = l
		}
		if line.err != nil {
			return "", line.err
		}

		answer := strings.TrimSpace(line.text)
		if valid(answer) {
			return answer, nil
		}
	}
}
