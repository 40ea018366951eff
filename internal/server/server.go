// Package server orchestrates all components: COMMS client, dispatcher, channel binding, HTTP introspection.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/tpp-host/internal/config"
	"github.com/morezero/tpp-host/pkg/commsutil"
	"github.com/morezero/tpp-host/pkg/dispatcher"
	"github.com/morezero/tpp-host/pkg/events"
	"github.com/morezero/tpp-host/pkg/hostenv"
	"github.com/morezero/tpp-host/pkg/manifest"
	"github.com/morezero/tpp-host/pkg/semver"
	"github.com/morezero/tpp-host/pkg/transport"
)

const logPrefix = "server:server"

// Server is the tpp-host orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	conn       connChecker
	channel    *channel
	binding    *transport.Binding
	httpServer *http.Server
	startedAt  time.Time
}

// channel is everything resolved before touching the network.
type channel struct {
	manifest   *manifest.ChannelManifest
	dispatcher *dispatcher.Dispatcher
	subject    string
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting tpp-host", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Start(ctx, cfg)
	if err != nil {
		return err
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	s.Shutdown(ctx)
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// Start connects to COMMS, binds the channel and starts the HTTP listener.
// The returned Server must be stopped with Shutdown.
func Start(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Step 1: Resolve manifest, handlers and subject
	ch, err := buildChannel(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - Channel subject: %s", logPrefix, ch.subject))

	// Step 2: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))

	// Step 3: Bind the dispatcher
	publisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalSubject: cfg.ChannelEventSubject})
	binding, err := transport.Bind(ctx, nc, transport.BindParams{
		Channel:        ch.manifest.Name,
		Subject:        ch.subject,
		Version:        ch.manifest.Version,
		Dispatcher:     ch.dispatcher,
		RequestTimeout: cfg.RequestTimeout,
		Publisher:      publisher,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%s - failed to bind channel: %w", logPrefix, err)
	}

	s := &Server{
		cfg:       cfg,
		nc:        nc,
		conn:      nc,
		channel:   ch,
		binding:   binding,
		startedAt: time.Now(),
	}

	// Step 4: Start HTTP introspection server
	httpAddr := cfg.ListenAddr()
	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - tpp-host is ready", logPrefix))
	return s, nil
}

// Shutdown unbinds the channel, stops HTTP and drains the COMMS connection.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.binding.Close(ctx); err != nil {
		slog.Warn(fmt.Sprintf("%s - %v", logPrefix, err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
	}

	if err := s.nc.Drain(); err != nil {
		slog.Warn(fmt.Sprintf("%s - drain: %v", logPrefix, err))
	}
}

// Subject returns the subject the channel is bound to.
func (s *Server) Subject() string {
	return s.channel.subject
}

// buildChannel loads the manifest, builds the dispatcher and derives the subject.
// A duplicate handler name fails here, before any connection is made.
func buildChannel(cfg *config.Config) (*channel, error) {
	m, err := manifest.LoadManifest(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load manifest: %w", logPrefix, err)
	}
	if m.Name != cfg.ChannelName {
		slog.Warn(fmt.Sprintf("%s - manifest names channel %s, using CHANNEL_NAME %s", logPrefix, m.Name, cfg.ChannelName))
		m.Name = cfg.ChannelName
	}

	regs, err := hostenv.Registrations(cfg.DirectoryMode, hostenv.OSEnv())
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build handlers: %w", logPrefix, err)
	}
	disp, err := dispatcher.New(regs...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build dispatcher: %w", logPrefix, err)
	}
	for _, name := range m.Unhandled(disp.Names()) {
		slog.Warn(fmt.Sprintf("%s - manifest declares %s but no handler is registered; calls will be unsupported", logPrefix, name))
	}

	subject := cfg.ChannelSubject
	if subject == "" {
		major, err := semver.MajorOf(m.Version)
		if err != nil {
			return nil, fmt.Errorf("%s - %w", logPrefix, err)
		}
		subject = commsutil.BuildChannelSubject(cfg.SubjectPrefix, m.Name, major)
	}

	return &channel{manifest: m, dispatcher: disp, subject: subject}, nil
}
