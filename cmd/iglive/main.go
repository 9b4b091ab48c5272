package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/five82/iglive/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.config/iglive/config.toml)")
	target := flag.String("target", "", "broadcaster username to watch")
	userID := flag.String("user-id", "", "broadcaster user id; skips the username lookup")
	noLogin := flag.Bool("no-login", false, "poll without logging in")
	plain := flag.Bool("plain", false, "print events as lines instead of starting the TUI")
	envFile := flag.String("env", ".env", "dotenv file with credentials (optional)")
	poll := flag.Duration("poll", 0, "override both poll intervals, e.g. 3s (optional, defaults to 5s)")
	flag.Parse()

	if *target == "" && flag.NArg() > 0 {
		*target = flag.Arg(0)
	}

	if err := loadEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "iglive: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:   *configPath,
		Target:       *target,
		TargetUserID: *userID,
		NoLogin:      *noLogin,
		Plain:        *plain,
	}
	if *poll > 0 {
		opts.PollEvery = max(*poll, 100*time.Millisecond)
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "iglive: %v\n", err)
		return 1
	}
	return 0
}

// loadEnv reads path into the environment without overriding variables
// that are already set. A missing file is fine.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
