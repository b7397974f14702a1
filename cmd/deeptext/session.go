package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/deeptext/internal/config"
	"github.com/nao1215/deeptext/internal/database"
	"github.com/nao1215/deeptext/internal/fetch"
	"github.com/nao1215/deeptext/internal/markup"
	"github.com/nao1215/deeptext/internal/model"
	"github.com/spf13/cobra"
)

// session holds what the analyses of one command run share: the history
// database, the embedded Tor daemon and per-host fetch clients.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.HistoryDB
	tor    *fetch.EmbeddedTor

	// Explicit flags beat per-site settings from the config file.
	strategyFlag  bool
	userAgentFlag bool

	mu      sync.Mutex
	clients map[string]*fetch.Client
}

// openSession opens the history database, starts or checks the proxy and
// returns a session ready to fetch. Close must be called when done.
func openSession(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*session, error) {
	s := &session{
		cfg:           cfg,
		logger:        logger,
		strategyFlag:  cmd.Flags().Changed("strategy"),
		userAgentFlag: cmd.Flags().Changed("user-agent"),
		clients:       make(map[string]*fetch.Client),
	}

	if !cfg.UseTor && cfg.ProxyAddress == "" {
		for _, target := range cfg.Targets {
			if u, err := fetch.NormalizeURL(target); err == nil && fetch.IsOnion(u) {
				logger.Warn("onion address without --tor or --proxy, the fetch will most likely fail",
					"url", u)
			}
		}
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
		logger.Debug("database opened", "path", db.Path())
	}

	switch {
	case cfg.UseTor:
		if err := s.startTor(ctx, cmd); err != nil {
			s.Close()
			return nil, err
		}
	case cfg.ProxyAddress != "":
		client, err := s.newClient(config.SiteConfig{})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		if status := client.CheckProxy(ctx); status != fetch.ProxyStatusOK {
			s.Close()
			return nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	return s, nil
}

// startTor starts the embedded Tor daemon and verifies its SOCKS port.
func (s *session) startTor(ctx context.Context, cmd *cobra.Command) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting embedded Tor daemon...")
	fmt.Fprintf(cmd.ErrOrStderr(), "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	s.tor = fetch.NewEmbeddedTor(fetch.WithStartupTimeout(s.cfg.TorStartupTimeout))
	if err := s.tor.Start(ctx); err != nil {
		s.tor = nil
		return fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	s.logger.Info("embedded Tor daemon started", "socksAddr", s.tor.SocksAddr())

	client, err := s.newClient(config.SiteConfig{})
	if err != nil {
		return fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckProxy(ctx); status != fetch.ProxyStatusOK {
		return fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}
	return nil
}

// Close stops the embedded Tor daemon and closes the database.
func (s *session) Close() {
	if s.tor != nil {
		s.logger.Info("stopping embedded Tor daemon...")
		if err := s.tor.Stop(); err != nil {
			s.logger.Error("failed to stop embedded Tor", "error", err)
		}
		s.tor = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", "error", err)
		}
		s.db = nil
	}
}

// newClient builds a fetch client for the given site settings.
func (s *session) newClient(site config.SiteConfig) (*fetch.Client, error) {
	userAgent := s.cfg.UserAgent
	if site.UserAgent != "" && !s.userAgentFlag {
		userAgent = site.UserAgent
	}

	opts := []fetch.Option{
		fetch.WithTimeout(s.cfg.Timeout),
		fetch.WithUserAgent(userAgent),
		fetch.WithMaxBodySize(s.cfg.MaxBodySize),
	}
	if site.Cookie != "" {
		opts = append(opts, fetch.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(site.Headers))
	}

	if s.tor != nil {
		return s.tor.NewClient(opts...)
	}
	if s.cfg.ProxyAddress != "" {
		opts = append(opts, fetch.WithProxy(s.cfg.ProxyAddress))
	}
	return fetch.NewClient(opts...)
}

// clientFor returns the client for host, creating it on first use.
func (s *session) clientFor(host string) (*fetch.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.clients[host]; ok {
		return client, nil
	}
	client, err := s.newClient(s.cfg.SiteConfig(host))
	if err != nil {
		return nil, err
	}
	s.clients[host] = client
	return client, nil
}

// strategyFor returns the depth strategy for host. A strategy in the
// host's config section applies unless --strategy was given.
func (s *session) strategyFor(host string) (markup.Strategy, error) {
	site := s.cfg.SiteConfig(host)
	if site.Strategy == "" || s.strategyFlag {
		return s.cfg.DepthStrategy()
	}
	strategy, err := markup.ParseStrategy(site.Strategy)
	if err != nil {
		return markup.DefaultStrategy, fmt.Errorf("%w: %q for %s", config.ErrInvalidStrategy, site.Strategy, host)
	}
	return strategy, nil
}

// fetcher returns a pipeline.Fetcher that applies per-host settings.
func (s *session) fetcher() *siteFetcher {
	return &siteFetcher{session: s}
}

// save stores analysis in the history database. Failures are logged and
// do not change the outcome of the run.
func (s *session) save(ctx context.Context, analysis *model.Analysis) {
	if s.db == nil {
		return
	}
	// Cancelled runs are still recorded.
	if err := s.db.SaveAnalysis(context.WithoutCancel(ctx), analysis); err != nil {
		s.logger.Error("failed to save analysis", "url", analysis.URL, "error", err)
		return
	}
	s.logger.Debug("analysis saved to database", "url", analysis.URL, "id", analysis.ID)
}

// siteFetcher picks the client configured for the host of each URL.
// It is safe for concurrent use.
type siteFetcher struct {
	session *session
}

// Fetch implements pipeline.Fetcher.
func (f *siteFetcher) Fetch(ctx context.Context, url string) (*model.Document, error) {
	client, err := f.session.clientFor(fetch.Host(url))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client.Fetch(ctx, url)
}
