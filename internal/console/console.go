// Package console is the line-mode front end: a one-shot lookup and an
// interactive prompt loop over stdin/stdout.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/i474232898/weather-cli/internal/common"
	"github.com/i474232898/weather-cli/internal/weather"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// MaxCityLen caps an interactive entry, in characters. Longer lines are
// reported and the prompt continues.
const MaxCityLen = 256

var exitWords = []string{"quit", "exit"}

// Lookuper performs a single weather lookup.
type Lookuper interface {
	Lookup(ctx context.Context, city string) weather.Outcome
}

// Console runs lookups synchronously; one request is in flight at a time.
type Console struct {
	svc    Lookuper
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

// New creates a Console reading from in, printing reports to out and
// failures to errOut.
func New(svc Lookuper, in io.Reader, out, errOut io.Writer, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		svc:    svc,
		in:     in,
		out:    out,
		errOut: errOut,
		log:    log,
	}
}

// Once fetches and prints the weather for city. The returned error is the
// lookup failure, already reported on errOut.
func (c *Console) Once(ctx context.Context, city string) error {
	fmt.Fprintf(c.out, "Fetching weather for %s...\n\n", city)

	rec, err := c.svc.Lookup(ctx, city).Result()
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return err
	}

	fmt.Fprintln(c.out, weather.Format(rec))
	return nil
}

// Run prompts for city names until the user types quit/exit or input ends.
// Lookup failures are reported and the prompt continues.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Weather CLI Application")
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out)

	// A Reader rather than a Scanner: an oversized line must not end the loop.
	reader := bufio.NewReader(c.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(c.out, "Enter city name (or 'quit' to exit): ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(c.out)
			c.farewell()
			return nil
		}

		city := strings.TrimSpace(line)
		switch {
		case common.EqualFoldAny(city, exitWords...):
			c.farewell()
			return nil
		case common.IsBlank(city):
			fmt.Fprintln(c.out, "Please enter a valid city name")
			fmt.Fprintln(c.out)
			continue
		case utf8.RuneCountInString(city) > MaxCityLen:
			fmt.Fprintf(c.out, "City name is too long (max %d characters)\n", MaxCityLen)
			fmt.Fprintln(c.out)
			c.log.Debug("interactive input rejected", "reason", "too long", "bytes", len(city))
			continue
		}

		if err := c.Once(ctx, city); err != nil {
			c.log.Debug("interactive lookup failed", "city", city, "err", err)
		}
		fmt.Fprintln(c.out)
	}
}

func (c *Console) farewell() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Goodbye!")
}
