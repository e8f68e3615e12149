package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircsession/internal/auth"
	"github.com/vovakirdan/ircsession/internal/config"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/feed"
	"github.com/vovakirdan/ircsession/internal/metrics"
	"github.com/vovakirdan/ircsession/internal/store"
	"github.com/vovakirdan/ircsession/internal/store/sqlite"
	"github.com/vovakirdan/ircsession/internal/transcript"
	transporthttp "github.com/vovakirdan/ircsession/internal/transport/http"
	"github.com/vovakirdan/ircsession/internal/transport/irc"
)

// App wires the session to the IRC connection and the HTTP API.
type App struct {
	cfg             *config.Config
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	session         *core.Session
	encoder         *core.Encoder
	client          *irc.Client
	metrics         *metrics.Metrics
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{
		cfg:             cfg,
		shutdownTimeout: cfg.HTTP.ShutdownTimeout,
		metrics:         metrics.New(),
		log:             logger,
	}

	hub := feed.NewHub(logger)
	listeners := core.Listeners{a.metrics, hub}

	var entries store.EntryStore
	if cfg.Transcript.Enabled {
		st, err := sqlite.New(cfg.Transcript.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.Transcript.DatabasePath).Msg("transcript database initialized")
		a.store, entries = st, st
		listeners = append(listeners, transcript.NewRecorder(st, logger))
	}
	listeners = append(listeners, &core.Handlers{OnRegistered: a.onRegistered})

	a.session = core.NewSession(core.Self{
		Nick:     cfg.IRC.Nickname,
		Username: cfg.IRC.Username,
		Realname: cfg.IRC.Realname,
	}, listeners,
		core.WithLogger(logger),
		core.WithFailureHandler(a.onListenerFailure),
	)

	client, err := irc.New(cfg.IRC, a.session, a.metrics, logger)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("init irc client: %w", err)
	}
	a.client = client
	a.encoder = core.NewEncoder(client,
		core.WithLineLimit(cfg.IRC.MaxLineLength),
		core.WithRejectHook(a.metrics.Rejected),
	)

	if cfg.HTTP.PasswordHash != "" && cfg.HTTP.JWTSecret == "" {
		a.cleanup()
		return nil, errors.New("http.jwt_secret is required when http.password_hash is set")
	}
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.HTTP.JWTSecret),
		Issuer:   cfg.HTTP.JWTIssuer,
		Audience: cfg.HTTP.JWTAudience,
		TTL:      cfg.HTTP.TokenTTL,
	}
	authService := auth.NewService(cfg.HTTP.PasswordHash, jwtConfig)
	if !authService.Enabled() {
		logger.Warn().Msg("http api authentication disabled: no password hash configured")
	}

	a.server = transporthttp.NewServer(transporthttp.Deps{
		Session: a.session,
		Encoder: a.encoder,
		Hub:     hub,
		Entries: entries,
		Auth:    authService,
		Metrics: a.metrics,
	}, &cfg.HTTP, logger)

	return a, nil
}

// Session returns the session driven by the app.
func (a *App) Session() *core.Session {
	return a.session
}

// Encoder returns the command encoder bound to the IRC connection.
func (a *App) Encoder() *core.Encoder {
	return a.encoder
}

// Run starts the IRC client and the HTTP server and blocks until context
// cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	ircErr := make(chan error, 1)

	go func() {
		ircErr <- a.client.Run(ctx)
	}()

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("starting http server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	var runErr error
	select {
	case err := <-serverErr:
		cancel()
		<-ircErr
		a.cleanup()
		return err
	case err := <-ircErr:
		// The client only returns on its own when reconnecting is disabled.
		if err != nil {
			runErr = fmt.Errorf("irc: %w", err)
		}
	case <-ctx.Done():
		<-ircErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer shutdownCancel()

	a.log.Info().Msg("shutting down http server")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.cleanup()
		return errors.Join(runErr, err)
	}

	a.cleanup()
	return errors.Join(runErr, <-serverErr)
}

// onRegistered identifies with services and joins the configured channels.
func (a *App) onRegistered(_ *core.Session, ev core.Event) error {
	a.log.Info().Str("nick", ev.Nick).Msg("registered with irc server")

	var errs []error
	if pw := a.cfg.IRC.NickServPassword; pw != "" {
		if err := a.encoder.Identify(pw); err != nil {
			errs = append(errs, fmt.Errorf("identify: %w", err))
		}
	}

	channels := a.cfg.IRC.Channels
	if len(channels) == 0 {
		return errors.Join(errs...)
	}
	err := a.encoder.JoinMany(channels...)
	if errors.Is(err, core.ErrMessageTooLong) {
		err = nil
		for _, ch := range channels {
			if joinErr := a.encoder.Join(ch, ""); joinErr != nil {
				errs = append(errs, fmt.Errorf("join %s: %w", ch, joinErr))
			}
		}
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("join: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) onListenerFailure(f *core.ObserverFailure) {
	a.metrics.ListenerFailure(f)
	a.log.Error().
		Err(f.Err).
		Str("event", f.Event.Kind.String()).
		Bool("panic", f.Panic).
		Msg("listener failed")
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
