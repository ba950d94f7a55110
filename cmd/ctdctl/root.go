package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ctdportal/application/ports"
	"ctdportal/application/services"
	"ctdportal/infrastructure/apiclient"
	"ctdportal/infrastructure/cache"
	"ctdportal/infrastructure/config"
	"ctdportal/infrastructure/session"
	"ctdportal/pkg/auth"
	apperrors "ctdportal/pkg/errors"
	"ctdportal/pkg/observability"
)

var errNotLoggedIn = errors.New(`not logged in; run "ctdctl login"`)

// options are the persistent flags
type options struct {
	apiURL      string
	sessionPath string
	output      string
	logLevel    string
	timeout     time.Duration
}

// cli holds what every command needs once the root pre-run has finished.
type cli struct {
	opts   options
	out    io.Writer
	errOut io.Writer

	logger    *zap.Logger
	session   *session.Session
	auth      *services.AuthService
	documents *services.DocumentService
	graphs    *services.GraphService
	profiles  *services.ProfileService
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "ctdctl",
		Short:         "Work with clinical-trial documents from the terminal",
		Long:          "ctdctl talks to the document backend directly. Log in once; the token is kept in a session file until it expires or the backend rejects it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	defaults := config.Default()
	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.apiURL, "api", "", "backend API base URL (default $API_BASE_URL or "+defaults.APIBaseURL+")")
	flags.StringVar(&c.opts.sessionPath, "session", session.DefaultFilePath(), "session file")
	flags.StringVarP(&c.opts.output, "output", "o", "text", "output format: text or json")
	flags.StringVar(&c.opts.logLevel, "log-level", "warn", "log level")
	flags.DurationVar(&c.opts.timeout, "timeout", defaults.UpstreamTimeout, "timeout per backend request")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.documentsCmd(),
		c.graphCmd(),
		c.linksCmd(),
		c.verifyCmd(),
		c.usersCmd(),
	)
	return root
}

// setup builds the session and services for one invocation.
func (c *cli) setup() error {
	if c.opts.output != "text" && c.opts.output != "json" {
		return fmt.Errorf("unknown output format %q", c.opts.output)
	}

	level, err := zapcore.ParseLevel(c.opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", c.opts.logLevel)
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stderr"}
	if c.logger, err = zapCfg.Build(); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if c.opts.apiURL != "" {
		cfg.APIBaseURL = c.opts.apiURL
	}

	c.session = session.New(session.NewFileStore(c.opts.sessionPath), auth.NewTokenDecoder(cfg.JWTSecret), c.logger)
	if err := c.session.Hydrate(); err != nil {
		return err
	}

	metrics := observability.NewCollector("ctdctl")
	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: c.opts.timeout,
		Logger:  c.logger,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}
	gateway := ports.GatewayFunc(func(s *session.Session) ports.DocumentBackend {
		return client.WithSession(s)
	})
	queryCache := cache.NewQueryCache(cfg.CacheTTL, metrics)

	c.auth = services.NewAuthService(gateway, queryCache, c.logger)
	c.documents = services.NewDocumentService(gateway, queryCache, metrics, c.logger, cfg.FetchConcurrency)
	c.graphs = services.NewGraphService(gateway, queryCache, c.logger, cfg.FetchConcurrency)
	c.profiles = services.NewProfileService(gateway, queryCache, cfg.FetchConcurrency)
	return nil
}

// authed runs fn for a logged-in user. A missing session, or one the backend
// tears down while fn runs, becomes errNotLoggedIn.
func (c *cli) authed(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if !c.session.IsAuthenticated() {
			return errNotLoggedIn
		}
		err := fn(cmd.Context(), args)
		if apperrors.IsUnauthorized(err) {
			return errNotLoggedIn
		}
		return err
	}
}
