package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter gates the two irreversible moments of a run: how much to invest
// and whether to place the orders at all.
type Prompter interface {
	Amount(ctx context.Context, currency string) (string, error)
	Confirm(ctx context.Context, summary string) (bool, error)
}

type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinPrompter() *stdinPrompter {
	return &stdinPrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (p *stdinPrompter) Amount(ctx context.Context, currency string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.out, "Enter investment amount in %s: ", currency)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *stdinPrompter) Confirm(ctx context.Context, summary string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s\nPlace both orders? [y/N]: ", summary)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
