// Package cli implements the usersctl command line client. Every command
// drives a state.Store over the HTTP transport and prints the resulting
// snapshot.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/useradmin/internal/config"
	"github.com/vyrodovalexey/useradmin/internal/logging"
	"github.com/vyrodovalexey/useradmin/internal/state"
	"github.com/vyrodovalexey/useradmin/internal/transport"
)

// Version is injected during build.
var Version = "dev"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	baseURL    string
	timeout    time.Duration
	logLevel   string
	jsonOutput bool
}

// session is what a command works with once flags and config are resolved.
type session struct {
	cfg        *config.ClientConfig
	configPath string
	logger     *zap.Logger
	client     *transport.Client
	store      *state.Store
	json       bool
}

type sessionKey struct{}

// NewRootCommand builds the usersctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "usersctl",
		Short: "Manage users of a useradmin API server",
		Long: `usersctl lists, creates, updates and deletes users through the useradmin REST API.

Settings come from the config file (default ` + config.DefaultClientConfigPath + `),
then APP_API_BASE_URL, APP_API_TIMEOUT and APP_LOG_LEVEL, then flags.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), sessionKey{}, sess))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if sess, ok := cmd.Context().Value(sessionKey{}).(*session); ok {
				_ = sess.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "client config file (default "+config.DefaultClientConfigPath+")")
	flags.StringVar(&opts.baseURL, "base-url", "", "API base URL, e.g. "+config.DefaultAPIBaseURL)
	flags.DurationVar(&opts.timeout, "timeout", 0, "request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newListCommand(),
		newCreateCommand(),
		newUpdateCommand(),
		newDeleteCommand(),
		newWatchCommand(),
		newConfigCommand(),
	)

	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func newSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	cfg, err := config.LoadClient(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, logging.FormatConsole)
	if err != nil {
		return nil, err
	}

	client, err := transport.NewClient(cfg.BaseURL,
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent("usersctl/"+Version),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("client configured", zap.Stringer("config", cfg))

	sess := &session{
		cfg:        cfg,
		configPath: opts.configPath,
		logger:     logger,
		client:     client,
		json:       opts.jsonOutput,
	}
	sess.store = sess.newStore()
	return sess, nil
}

// newStore builds a store over the session's client starting at the
// configured query.
func (s *session) newStore(opts ...state.Option) *state.Store {
	base := []state.Option{
		state.WithLogger(s.logger),
		state.WithInitialQuery(s.cfg.InitialQuery()),
	}
	return state.New(s.client, append(base, opts...)...)
}

func sessionFrom(cmd *cobra.Command) (*session, error) {
	sess, ok := cmd.Context().Value(sessionKey{}).(*session)
	if !ok {
		return nil, errors.New("command run without a session")
	}
	return sess, nil
}

// storeError returns the message the store recorded for a failed operation,
// falling back to err itself.
func storeError(s *state.Store, err error) error {
	if msg := s.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return err
}
