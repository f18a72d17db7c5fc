package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/i474232898/weather-cli/internal/config"
	"github.com/i474232898/weather-cli/internal/console"
	"github.com/i474232898/weather-cli/internal/logging"
	"github.com/i474232898/weather-cli/internal/scheduler"
	"github.com/i474232898/weather-cli/internal/weather"
	"github.com/i474232898/weather-cli/internal/weather/providers"
	"github.com/i474232898/weather-cli/internal/window"
)

const appName = "weather-cli"

func main() {
	var (
		city  string
		gui   bool
		watch = flag.Duration("watch", 0, "Re-fetch the -city weather on this interval (e.g. 10m)")
	)
	flag.StringVar(&city, "city", "", "City name to fetch weather for")
	flag.StringVar(&city, "c", "", "Short for -city")
	flag.BoolVar(&gui, "gui", false, "Launch the windowed interface")
	flag.BoolVar(&gui, "g", false, "Short for -gui")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Fetch weather information for any city.\n\nUsage: %s [options]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load configuration; nothing else runs without an API key.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg, appName)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: cfg.OpenWeatherBaseURL,
	}, log)
	service := weather.NewService(provider, log)

	switch {
	case gui:
		if err = runWindow(cfg, service, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	case city != "" && *watch > 0:
		if err = runWatch(city, *watch, service, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	case city != "":
		err = console.New(service, os.Stdin, os.Stdout, os.Stderr, log).Once(context.Background(), city)
	case *watch > 0:
		err = fmt.Errorf("-watch requires -city")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	default:
		err = console.New(service, os.Stdin, os.Stdout, os.Stderr, log).Run(context.Background())
	}

	if err != nil {
		log.Debug("exiting with error", "err", err)
		os.Exit(1)
	}
}

func runWatch(city string, interval time.Duration, service *weather.Service, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cons := console.New(service, os.Stdin, os.Stdout, os.Stderr, log)
	sched, err := scheduler.New(city, interval, cons, log)
	if err != nil {
		return err
	}
	return sched.Run(ctx)
}

func runWindow(cfg *config.AppConfig, service *weather.Service, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := window.NewModel(ctx, service, log)
	srv, err := window.NewServer(model, window.Options{
		Tick:      cfg.WindowTick,
		AccessLog: accessLog(cfg),
	}, log)
	if err != nil {
		return fmt.Errorf("build window: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.WindowAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.WindowAddr, err)
	}

	url := "http://" + ln.Addr().String() + "/"
	fmt.Fprintf(os.Stdout, "Weather window at %s (Ctrl+C to quit)\n", url)
	if cfg.WindowOpenBrowser {
		if err := window.OpenBrowser(url); err != nil {
			log.Warn("could not open a browser; open the URL manually", "url", url, "err", err)
		}
	}

	return srv.Serve(ctx, ln)
}

// accessLog returns where fiber request logs go; they are only useful when debugging.
func accessLog(cfg *config.AppConfig) io.Writer {
	if cfg.LogLevel <= slog.LevelDebug {
		return os.Stderr
	}
	return nil
}
