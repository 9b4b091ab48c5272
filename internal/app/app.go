package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/iglive/internal/config"
	"github.com/five82/iglive/internal/instagram"
	"github.com/five82/iglive/internal/live"
	"github.com/five82/iglive/internal/logging"
	"github.com/five82/iglive/internal/prefs"
	"github.com/five82/iglive/internal/state"
	"github.com/five82/iglive/internal/ui"
)

// Options configure the iglive application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/iglive/prefs.toml

	// Target and TargetUserID override the config file.
	Target       string
	TargetUserID string
	// NoLogin polls without authenticating first.
	NoLogin bool
	// Plain prints events as lines instead of starting the TUI.
	Plain bool
	// PollEvery overrides both poll intervals when positive.
	PollEvery time.Duration

	Stdout io.Writer
	Stderr io.Writer
}

const feedLimit = 1000

// Run connects to the configured broadcast and blocks until the session
// ends, the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)
	if cfg.Target == "" && cfg.TargetUserID == "" {
		return fmt.Errorf("no target: set target in the config file, %s, or -target", config.EnvTarget)
	}
	if !opts.NoLogin && !cfg.HasLogin() {
		return fmt.Errorf("no credentials: set %s or %s and %s, or pass -no-login",
			config.EnvSessionID, config.EnvUsername, config.EnvPassword)
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	logOpts := logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogPath()}
	if opts.Plain {
		logOpts.Console = stderr
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	if cfg.Login.DeviceID == "" {
		cfg.Login.DeviceID = instagram.GenerateDeviceID()
	}

	client, err := instagram.NewClient(instagram.Options{
		BaseURL:     cfg.Transport.BaseURL,
		ProxyURL:    cfg.Transport.ProxyURL,
		Timeout:     cfg.Transport.Timeout,
		UserAgent:   cfg.Transport.UserAgent,
		RatePerSec:  cfg.Transport.RatePerSec,
		LoginJitter: cfg.Transport.LoginJitter,
		Headers:     cfg.Transport.Headers,
		Logger:      &logger,
	})
	if err != nil {
		return fmt.Errorf("init instagram client: %w", err)
	}

	ctrl, err := live.NewController(live.Config{
		Username: cfg.Target,
		Credentials: instagram.Credentials{
			Username:  cfg.Login.Username,
			Password:  cfg.Login.Password,
			SessionID: cfg.Login.SessionID,
			DeviceID:  cfg.Login.DeviceID,
		},
		CommentFetchInterval:   cfg.Polling.CommentFetchInterval,
		HeartbeatFetchInterval: cfg.Polling.HeartbeatFetchInterval,
	}, live.InvokersFor(client), live.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("init live controller: %w", err)
	}

	store := state.NewStore(feedLimit)
	detach := store.Attach(ctrl)
	defer detach()

	sess := newSession(ctrl, store, startOptions(cfg, opts), logger)
	defer sess.Disconnect()

	logger.Info().
		Str("target", cfg.Target).
		Str("target_user_id", cfg.TargetUserID).
		Bool("plain", opts.Plain).
		Msg("iglive starting")

	if opts.Plain {
		return runPlain(ctx, sess, stdout)
	}
	return runTUI(ctx, sess, store, cfg, opts)
}

func applyOverrides(cfg *config.Config, opts Options) {
	if t := strings.TrimPrefix(strings.TrimSpace(opts.Target), "@"); t != "" {
		cfg.Target = t
	}
	if id := strings.TrimSpace(opts.TargetUserID); id != "" {
		cfg.TargetUserID = id
	}
	if opts.PollEvery > 0 {
		cfg.Polling.CommentFetchInterval = opts.PollEvery
		cfg.Polling.HeartbeatFetchInterval = opts.PollEvery
	}
}

func startOptions(cfg config.Config, opts Options) []live.StartOption {
	var out []live.StartOption
	if cfg.TargetUserID != "" {
		out = append(out, live.WithTargetUserID(cfg.TargetUserID))
	}
	if opts.NoLogin {
		out = append(out, live.WithoutLoginRefresh())
	}
	return out
}

// runPlain prints every event until the broadcast ends or ctx is done. A
// session that ends with an error returns it.
func runPlain(ctx context.Context, sess *session, out io.Writer) error {
	ended := make(chan error, 1)
	unsubscribe := sess.ctrl.SubscribeAll(func(e live.Event) {
		if line := formatEvent(e); line != "" {
			_, _ = fmt.Fprintln(out, line)
		}
		if e.Kind == live.EventDisconnected {
			select {
			case ended <- e.Err:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := sess.Connect(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		sess.Disconnect()
		return nil
	case err := <-ended:
		return err
	}
}

func runTUI(ctx context.Context, sess *session, store *state.Store, cfg config.Config, opts Options) error {
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	tuiCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		// Failures land in the store and show in the header.
		_ = sess.Connect(tuiCtx)
	}()

	target := cfg.Target
	if target == "" {
		target = cfg.TargetUserID
	}
	return ui.Run(ui.Options{
		Context:   tuiCtx,
		Store:     store,
		Session:   sess,
		Target:    target,
		LogPath:   cfg.LogPath(),
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
}

// session adapts the controller to the UI's connect and disconnect keys.
type session struct {
	ctrl  *live.Controller
	store *state.Store
	opts  []live.StartOption
	log   zerolog.Logger
}

func newSession(ctrl *live.Controller, store *state.Store, opts []live.StartOption, logger zerolog.Logger) *session {
	return &session{ctrl: ctrl, store: store, opts: opts, log: logger}
}

// Connect starts a session unless one is running.
func (s *session) Connect(ctx context.Context) error {
	if s.ctrl.State() == live.Disconnected {
		s.store.SetState(live.Connecting)
	}
	err := s.ctrl.Start(ctx, s.opts...)
	if err == nil {
		return nil
	}
	if errors.Is(err, live.ErrAlreadyStarted) {
		return err
	}
	s.store.SetState(s.ctrl.State())
	s.store.SetError(err)
	s.log.Error().Err(err).Msg("connect failed")
	return err
}

// Disconnect stops the running session, if any.
func (s *session) Disconnect() {
	s.ctrl.Disconnect(nil)
}
