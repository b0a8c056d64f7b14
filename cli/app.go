// Package cli is the command-line front end of the marketplace.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"golang.org/x/term"

	"vehicle-marketplace/client"
	"vehicle-marketplace/config"
	"vehicle-marketplace/services"
	"vehicle-marketplace/session"
	"vehicle-marketplace/storage"
	"vehicle-marketplace/utils"
)

// App holds the wired dependencies shared by all commands.
type App struct {
	cfg        *config.Config
	logger     *utils.Logger
	fluent     *fluent.Fluent
	sessions   *session.Store
	api        *client.Client
	normalizer *services.Normalizer
	insights   *services.InsightService

	catalogue *services.Catalogue
	closers   []io.Closer

	out       io.Writer
	in        *bufio.Reader
	stdin     *os.File
	logWriter io.Writer
}

func newApp(out io.Writer, in io.Reader) *App {
	a := &App{out: out, in: bufio.NewReader(in), logWriter: os.Stderr}
	if f, ok := in.(*os.File); ok {
		a.stdin = f
	}
	return a
}

func (a *App) ready() bool {
	return a.cfg != nil
}

// init wires everything that does not need a network connection. Listing
// sources are opened lazily by Catalogue.
func (a *App) init(cfg *config.Config) error {
	a.cfg = cfg

	logCfg := utils.LoggerConfig{
		Writer: a.logWriter,
		Level:  utils.ParseLevel(cfg.LogLevel),
		JSON:   cfg.LogJSON,
	}
	if cfg.FluentEnabled {
		fc, err := utils.NewFluentClient(cfg.FluentHost, cfg.FluentPort, cfg.AppName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fluent bit disabled: %v\n", err)
		} else {
			a.fluent = fc
			logCfg.Fluent = fc
			logCfg.FluentLevel = utils.ParseLevel(cfg.FluentLogLevel)
		}
	}
	a.logger = utils.NewLogger(logCfg)

	store, err := session.NewStore(session.NewFileBackend(cfg.SessionFile), a.logger)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	a.sessions = store

	a.api = client.New(cfg.APIBaseURL, cfg.APIPrefix, store, a.logger)
	a.normalizer = services.NewNormalizer(services.NormalizerOptions{
		BaseURL:      cfg.ImageBaseURL,
		UploadPrefix: cfg.UploadPrefix,
	}, a.logger)
	a.insights = services.NewInsightService(a.logger)

	a.logger.Debug("app initialised",
		"api", cfg.APIBaseURL,
		"source", cfg.ListingSource,
		"authenticated", store.IsAuthenticated(),
	)
	return nil
}

// Catalogue returns the read pipeline over the configured listing source.
func (a *App) Catalogue() (*services.Catalogue, error) {
	if a.catalogue != nil {
		return a.catalogue, nil
	}
	src, err := a.listingSource(a.cfg.ListingSource)
	if err != nil {
		return nil, err
	}
	a.catalogue = services.NewCatalogue(src, a.normalizer, a.cfg.MaxConcurrency, a.logger)
	return a.catalogue, nil
}

func (a *App) listingSource(name string) (services.ListingFetcher, error) {
	switch name {
	case config.SourceMock:
		return storage.NewMockSource(), nil
	case config.SourcePostgres:
		pg, err := a.openPostgres()
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.SourceAPI, "":
		return storage.NewAPISource(a.api), nil
	}
	return nil, fmt.Errorf("unknown listing source %q (want %s, %s or %s)",
		name, config.SourceAPI, config.SourceMock, config.SourcePostgres)
}

func (a *App) openPostgres() (*storage.PostgresSource, error) {
	pg, err := storage.NewPostgresSource(a.cfg.DSN(), utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pg)
	return pg, nil
}

// Close releases open connections.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
	if a.fluent != nil {
		a.fluent.Close()
		a.fluent = nil
	}
}

// prompt asks for a line of input. An empty answer keeps def.
func (a *App) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(a.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(a.out, "%s: ", label)
	}
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return def, nil
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	if line = strings.TrimSpace(line); line == "" {
		return def, nil
	}
	return line, nil
}

// promptSecret reads a password without echo when stdin is a terminal.
func (a *App) promptSecret(label string) (string, error) {
	if a.stdin != nil && term.IsTerminal(int(a.stdin.Fd())) {
		fmt.Fprintf(a.out, "%s: ", label)
		b, err := term.ReadPassword(int(a.stdin.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return a.prompt(label, "")
}

func (a *App) confirm(question string) (bool, error) {
	answer, err := a.prompt(question+" [y/N]", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// required returns value, prompting for it when empty.
func (a *App) required(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := a.prompt(label, "")
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return v, nil
}
