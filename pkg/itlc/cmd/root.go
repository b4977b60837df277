package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itlusions/itlc/pkg/itlc/auth"
	"github.com/itlusions/itlc/pkg/itlc/cache"
	"github.com/itlusions/itlc/pkg/itlc/config"
	"github.com/itlusions/itlc/pkg/itlc/logging"
)

// Config seeds the root command. Tests inject a writer and a config path
// pointing at a fixture.
type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
}

type runtimeState struct {
	configPath      string
	cfg             config.Config
	realmOverride   string
	issuerOverride  string
	clientOverride  string
	storageOverride string
	verbose         bool
	writer          io.Writer
	log             *zap.SugaredLogger

	// test seams
	store   cache.Store
	login   func(context.Context) (*auth.TokenSet, error)
	refresh func(context.Context, auth.TokenSet) (*auth.TokenSet, error)
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(rootCfg Config) *cobra.Command {
	rt := &runtimeState{configPath: rootCfg.ConfigPath, writer: rootCfg.OutputWriter}

	root := &cobra.Command{
		Use:           "itlc",
		Short:         "ITlusions authentication CLI",
		Long:          "itlc authenticates against the ITlusions Keycloak identity provider and serves tokens to kubectl and other tools.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("ITLC_VERBOSE"), "true")
			}
			rt.log = logging.New(rt.verbose)

			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			if rt.realmOverride != "" {
				cfg.Realm = rt.realmOverride
			}
			if rt.issuerOverride != "" {
				cfg.IssuerURL = rt.issuerOverride
			}
			if rt.clientOverride != "" {
				cfg.ClientID = rt.clientOverride
			}
			if rt.storageOverride != "" {
				cfg.TokenStorage = rt.storageOverride
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			rt.cfg = *cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.realmOverride, "realm", "", "Keycloak realm override")
	root.PersistentFlags().StringVar(&rt.issuerOverride, "issuer", "", "Issuer URL override (bypass realm derivation)")
	root.PersistentFlags().StringVar(&rt.clientOverride, "client-id", "", "OIDC client ID override")
	root.PersistentFlags().StringVar(&rt.storageOverride, "token-storage", "", "Token storage backend: file or keyring")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable verbose diagnostics on stderr")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newStatusCommand(),
		newWhoamiCommand(),
		newGetTokenCommand(),
		NewTokenCommand(),
		NewCacheCommand(),
		newKubectlTokenCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
		NewCompletionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

// Store returns the configured token store backend.
func (rt *runtimeState) Store() (cache.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	switch rt.cfg.TokenStorage {
	case "", "file":
		rt.store = cache.NewFileStore(rt.cfg.ResolveCacheDir())
	case "keyring":
		rt.store = cache.NewKeyringStore()
	default:
		return nil, fmt.Errorf("unsupported token-storage: %s", rt.cfg.TokenStorage)
	}
	return rt.store, nil
}

func (rt *runtimeState) ContextStore() (*cache.ContextStore, error) {
	store, err := rt.Store()
	if err != nil {
		return nil, err
	}
	return cache.NewContextStore(store), nil
}

// Login runs the interactive flow, or the injected replacement in tests.
func (rt *runtimeState) Login(ctx context.Context, requireIDToken bool) (*auth.TokenSet, error) {
	if rt.login != nil {
		return rt.login(ctx)
	}
	a, err := auth.NewAuthenticator(rt.cfg, rt.log)
	if err != nil {
		return nil, err
	}
	a.RequireIDToken = requireIDToken
	return a.Login(ctx)
}

// Refresh redeems a refresh token, or runs the injected replacement in
// tests.
func (rt *runtimeState) Refresh(ctx context.Context, prev auth.TokenSet) (*auth.TokenSet, error) {
	if rt.refresh != nil {
		return rt.refresh(ctx, prev)
	}
	a, err := auth.NewAuthenticator(rt.cfg, rt.log)
	if err != nil {
		return nil, err
	}
	return a.Refresh(ctx, prev)
}
