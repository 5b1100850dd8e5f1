// Package cli is the multipaga command line: session management plus typed access to the
// merchant resources of a Hyperswitch account.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/multipaga/auth"
	"github.com/jrsteele09/multipaga/fetch"
	"github.com/jrsteele09/multipaga/headers"
	"github.com/jrsteele09/multipaga/hyperswitch"
	"github.com/jrsteele09/multipaga/internal/config"
	"github.com/jrsteele09/multipaga/tokenstore"
	"github.com/jrsteele09/multipaga/tokenstore/cookiestore"
	"github.com/jrsteele09/multipaga/tokenstore/filestore"
	"github.com/jrsteele09/multipaga/tokenstore/memstore"
	"github.com/jrsteele09/multipaga/tokenstore/redisstore"
)

// app carries what the commands share. The session parts are built on first use so that
// commands like resolve and sandbox never touch the token store.
type app struct {
	cfgFile string
	verbose bool
	output  string

	cfg    config.Config
	logger zerolog.Logger

	service *auth.Service
	fetcher *fetch.Fetcher
	client  *hyperswitch.Client
	closers []func() error
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// NewRootCommand builds the full command tree. Each call returns an independent tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "multipaga",
		Short: "Multipaga - Hyperswitch merchant client",
		Long: `multipaga signs in to a Hyperswitch account and works with its connectors,
payments, customers and analytics from the command line.

The session is kept between invocations in the configured token store.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (environment variables still win)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", formatYAML, "Output format: yaml or json")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.switchMerchantCmd(),
		a.tokenCmd(),
		a.resolveCmd(),
		a.connectorsCmd(),
		a.paymentsCmd(),
		a.customersCmd(),
		a.analyticsCmd(),
		a.apiCmd(),
		a.sandboxCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if a.output != formatYAML && a.output != formatJSON {
		return errors.Errorf("unknown output format %q", a.output)
	}

	if a.cfgFile != "" {
		cfg, err := config.NewFromFile(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.New()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(a.cfg.GetLogLevel()))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if a.verbose {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func (a *app) close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// connect builds the token store, auth service, fetcher and typed client from the config.
func (a *app) connect(cmd *cobra.Command) error {
	if a.service != nil {
		return nil
	}
	ctx := cmd.Context()
	httpClient := &http.Client{Timeout: a.cfg.GetHTTPTimeout()}

	store, err := a.newStore(ctx, httpClient)
	if err != nil {
		return err
	}

	a.service, err = auth.New(a.cfg.GetBaseURL(), store,
		auth.WithHTTPClient(httpClient),
		auth.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	a.fetcher, err = fetch.New(a.cfg.GetBaseURL(), a.service,
		fetch.WithHTTPClient(httpClient),
		fetch.WithVersion(headers.Version(a.cfg.GetAPIVersion())),
		fetch.WithXFeatureRoute(a.cfg.GetXFeatureRoute()),
		fetch.WithLoginPath(a.cfg.GetLoginPath()),
		fetch.WithLogger(a.logger),
		fetch.WithRedirect(func(string) {
			fmt.Fprintln(stderr, "Session expired, run `multipaga login` to sign in again.")
		}),
	)
	if err != nil {
		return err
	}
	a.client = hyperswitch.New(a.fetcher, a.service)
	return nil
}

func (a *app) newStore(ctx context.Context, httpClient *http.Client) (tokenstore.Store, error) {
	policy := tokenstore.PolicyFromConfig(a.cfg, a.cfg)

	switch backend := a.cfg.GetStoreBackend(); backend {
	case config.StoreBackendMemory:
		return memstore.New(policy), nil

	case config.StoreBackendCookie:
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "[app.newStore] cookie jar")
		}
		httpClient.Jar = jar
		store, err := cookiestore.New(jar, a.cfg.GetDashboardURL(), policy)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreBackendRedis:
		client, err := redisstore.NewClient(ctx, a.cfg.GetRedisAddr(), a.cfg.GetRedisPassword(), a.cfg.GetRedisDB())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redisstore.New(client, a.cfg.GetRedisKey(), policy), nil

	default:
		a.logger.Debug().Str("path", a.cfg.GetStorePath()).Msg("using file token store")
		return filestore.New(a.cfg.GetStorePath(), policy), nil
	}
}

// readLine prints prompt and reads one trimmed line. It reads byte by byte so consecutive
// prompts on the same reader see every line.
func readLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "[readLine]")
		}
	}
	return strings.TrimSpace(line.String()), nil
}
