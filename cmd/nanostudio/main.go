package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/juan1coder/nanostudio/internal/display"
	"github.com/juan1coder/nanostudio/internal/keys"
	"github.com/juan1coder/nanostudio/internal/provider"
	"github.com/juan1coder/nanostudio/internal/provider/gemini"
	"github.com/juan1coder/nanostudio/internal/repl"
	"github.com/juan1coder/nanostudio/internal/studio"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagAPIKey    string
	flagModel     string
	flagBaseURL   string
	flagTimeout   int
	flagVerbose   bool
	flagNoPreview bool
)

type App struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	GetEnv     func(string) string
	NewService func(cfg *provider.Config, logger zerolog.Logger) (provider.StyleService, error)
}

func DefaultApp() *App {
	return &App{
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		GetEnv: os.Getenv,
		NewService: func(cfg *provider.Config, logger zerolog.Logger) (provider.StyleService, error) {
			return gemini.New(cfg, logger)
		},
	}
}

func main() {
	// Optional; missing .env files are not an error.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := DefaultApp()
	return newRootCmd(app).ExecuteContext(ctx)
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nanostudio",
		Short: "Interactive style-transfer studio for reference-driven image generation",
		Long: `nanostudio analyzes the artistic style of a reference image and renders
new images in that style through a hosted generative model.

Start it, load a reference, and work the session:

  nanostudio
  studio> load sunset.png
  studio> analyze 3
  studio> render a lighthouse at dawn
  studio> edit`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStudio(cmd.Context(), app)
		},
	}

	cmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to stored key, then "+keys.EnvVar+")")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVarP(&flagModel, "model", "m", "", "model to use")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "override the service base URL")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "request timeout in seconds")
	cmd.Flags().BoolVar(&flagNoPreview, "no-preview", false, "disable inline image previews")

	cmd.AddCommand(newKeysCmd(app))

	return cmd
}

func newLogger(app *App) zerolog.Logger {
	level := zerolog.WarnLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: app.Err}).
		Level(level).
		With().Timestamp().Logger()
}

func runStudio(ctx context.Context, app *App) error {
	logger := newLogger(app)

	apiKey, source, err := resolveAPIKey(app)
	if err != nil {
		return err
	}
	logger.Debug().Str("source", source).Msg("resolved API key")

	svc, err := app.NewService(&provider.Config{
		APIKey:     apiKey,
		BaseURL:    flagBaseURL,
		Model:      flagModel,
		TimeoutSec: flagTimeout,
		Verbose:    flagVerbose,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	r := repl.New(&repl.Config{
		In:        app.In,
		Out:       app.Out,
		Err:       app.Err,
		Studio:    studio.New(svc, logger),
		Service:   svc,
		Displayer: display.New(app.Out),
		Logger:    logger,
		Preview:   !flagNoPreview && display.IsTerminalSupported(),
	})
	return r.Run(ctx)
}

// resolveAPIKey mirrors keys.GetAPIKey but reads the environment through the
// app for testability.
func resolveAPIKey(app *App) (string, string, error) {
	if flagAPIKey != "" {
		return flagAPIKey, "command-line flag", nil
	}

	if store, err := keys.NewStore(); err == nil {
		if stored, err := store.Get(keys.Provider); err == nil && stored != "" {
			return stored, "stored key (keys.json)", nil
		}
	}

	if envKey := app.GetEnv(keys.EnvVar); envKey != "" {
		return envKey, fmt.Sprintf("environment variable (%s)", keys.EnvVar), nil
	}

	return "", "", fmt.Errorf("API key required: run 'nanostudio keys set' or set %s", keys.EnvVar)
}

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key in keys.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var key string
			if len(args) > 0 {
				key = args[0]
			} else {
				entered, err := promptForKey(app)
				if err != nil {
					return err
				}
				key = entered
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("key cannot be empty")
			}

			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			if err := store.Set(keys.Provider, key); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Stored key %s in %s\n", keys.MaskKey(key), store.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored API key (masked)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			key, err := store.Get(keys.Provider)
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Fprintln(app.Out, "No key stored.")
				return nil
			}
			fmt.Fprintf(app.Out, "%s: %s\n", keys.Provider, keys.MaskKey(key))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			if err := store.Delete(keys.Provider); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Key deleted.")
			return nil
		},
	})

	return cmd
}

// promptForKey reads the key without echo when stdin is a terminal, falling
// back to a plain line read otherwise.
func promptForKey(app *App) (string, error) {
	fmt.Fprint(app.Out, "Enter API key: ")

	if f, ok := app.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(app.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
