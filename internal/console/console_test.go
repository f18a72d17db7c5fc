package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/i474232898/weather-cli/internal/weather"
)

type fakeLookup struct {
	cities   []string
	outcomes map[string]weather.Outcome
}

func (f *fakeLookup) Lookup(_ context.Context, city string) weather.Outcome {
	f.cities = append(f.cities, city)
	if out, ok := f.outcomes[city]; ok {
		return out
	}
	return weather.Failure("API request failed with status: 404 Not Found")
}

func nairobi() weather.Record {
	return weather.Record{
		Name:         "Nairobi",
		Country:      "KE",
		TemperatureC: 22.5,
		FeelsLikeC:   21.8,
		HumidityPct:  65,
		PressureHpa:  1013,
		WindSpeedMS:  3.5,
		VisibilityM:  10000,
		Conditions:   []weather.Condition{{Main: "Clouds", Description: "broken clouds"}},
	}
}

func newConsole(f *fakeLookup, input string) (*Console, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(f, strings.NewReader(input), &out, &errOut, log), &out, &errOut
}

func TestOnce_success(t *testing.T) {
	f := &fakeLookup{outcomes: map[string]weather.Outcome{"Nairobi": weather.Success(nairobi())}}
	c, out, errOut := newConsole(f, "")

	if err := c.Once(context.Background(), "Nairobi"); err != nil {
		t.Fatalf("Once() error = %v", err)
	}
	if !strings.Contains(out.String(), "Fetching weather for Nairobi...") {
		t.Errorf("stdout missing progress line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), weather.Format(nairobi())) {
		t.Errorf("stdout missing report:\n%s", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr = %q; want empty", errOut.String())
	}
}

func TestOnce_failureGoesToStderr(t *testing.T) {
	f := &fakeLookup{}
	c, out, errOut := newConsole(f, "")

	if err := c.Once(context.Background(), "Atlantis"); err == nil {
		t.Fatal("Once() = nil; want error")
	}
	if !strings.Contains(errOut.String(), "Error: API request failed with status: 404") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if strings.Contains(out.String(), "Weather in") {
		t.Errorf("stdout has a report on failure:\n%s", out.String())
	}
}

func TestRun_blankInputReprompts(t *testing.T) {
	f := &fakeLookup{}
	c, out, _ := newConsole(f, "  \n\t\nquit\n")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.cities) != 0 {
		t.Errorf("lookups = %v; want none for blank input", f.cities)
	}
	if got := strings.Count(out.String(), "Please enter a valid city name"); got != 2 {
		t.Errorf("warning count = %d; want 2\n%s", got, out.String())
	}
	if got := strings.Count(out.String(), "Enter city name (or 'quit' to exit): "); got != 3 {
		t.Errorf("prompt count = %d; want 3", got)
	}
}

func TestRun_exitWordsIgnoreCase(t *testing.T) {
	for _, word := range []string{"QUIT", "quit", "Exit", "  eXiT  "} {
		t.Run(word, func(t *testing.T) {
			f := &fakeLookup{}
			c, out, _ := newConsole(f, word+"\nNairobi\n")

			if err := c.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(f.cities) != 0 {
				t.Errorf("lookups = %v; want none after %q", f.cities, word)
			}
			if !strings.Contains(out.String(), "Goodbye!") {
				t.Errorf("missing farewell:\n%s", out.String())
			}
		})
	}
}

func TestRun_fetchesAndKeepsGoingAfterFailure(t *testing.T) {
	f := &fakeLookup{outcomes: map[string]weather.Outcome{"Nairobi": weather.Success(nairobi())}}
	c, out, errOut := newConsole(f, "Atlantis\n  Nairobi  \nexit\n")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.cities) != 2 || f.cities[0] != "Atlantis" || f.cities[1] != "Nairobi" {
		t.Errorf("lookups = %v; want [Atlantis Nairobi]", f.cities)
	}
	if !strings.Contains(errOut.String(), "404") {
		t.Errorf("stderr = %q; want failure message", errOut.String())
	}
	if !strings.Contains(out.String(), "Weather in Nairobi, KE:") {
		t.Errorf("stdout missing report:\n%s", out.String())
	}
}

func TestRun_eofEndsLoop(t *testing.T) {
	f := &fakeLookup{}
	c, out, _ := newConsole(f, "")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("missing farewell on EOF:\n%s", out.String())
	}
}

func TestRun_oversizedLineKeepsPrompting(t *testing.T) {
	f := &fakeLookup{outcomes: map[string]weather.Outcome{"Nairobi": weather.Success(nairobi())}}
	// Well past bufio.Scanner's default 64 KiB token limit.
	huge := strings.Repeat("x", 100*1024)
	c, out, errOut := newConsole(f, huge+"\nNairobi\nquit\n")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "City name is too long (max 256 characters)") {
		t.Errorf("missing too-long notice:\n%.300s", out.String())
	}
	if len(f.cities) != 1 || f.cities[0] != "Nairobi" {
		t.Errorf("lookups = %d entries; want only Nairobi", len(f.cities))
	}
	if !strings.Contains(out.String(), "Weather in Nairobi, KE:") || !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("loop did not continue after the long line")
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr = %q; want empty", errOut.String())
	}
}

func TestRun_cityLengthLimitCountsCharacters(t *testing.T) {
	f := &fakeLookup{}
	atLimit := strings.Repeat("é", MaxCityLen)
	c, out, _ := newConsole(f, atLimit+"\n"+atLimit+"é\nquit\n")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.cities) != 1 || f.cities[0] != atLimit {
		t.Errorf("lookups = %d entries; want only the %d-character city", len(f.cities), MaxCityLen)
	}
	if got := strings.Count(out.String(), "City name is too long"); got != 1 {
		t.Errorf("too-long notices = %d; want 1", got)
	}
}

func TestRun_finalLineWithoutNewline(t *testing.T) {
	f := &fakeLookup{outcomes: map[string]weather.Outcome{"Nairobi": weather.Success(nairobi())}}
	c, out, _ := newConsole(f, "Nairobi")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(f.cities) != 1 || f.cities[0] != "Nairobi" {
		t.Errorf("lookups = %v; want [Nairobi]", f.cities)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("missing farewell after final line:\n%s", out.String())
	}
}

func TestRun_cancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _, _ := newConsole(&fakeLookup{}, "Nairobi\n")
	if err := c.Run(ctx); err == nil {
		t.Fatal("Run() = nil; want context error")
	}
}
