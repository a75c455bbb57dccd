// Package cli implements sumctl, the command-line front end for local
// summarization, ROUGE evaluation and API-key administration.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Extractive-Summarizer/pkg/postgres"
)

// KeyStore is the API-key administration surface used by the keys commands.
type KeyStore interface {
	Create(ctx context.Context, name string, rateLimit int, expiresAt *time.Time) (string, *apikey.KeyInfo, error)
	Revoke(ctx context.Context, id string) error
	List(ctx context.Context) ([]apikey.KeyInfo, error)
}

// KeyStoreOpener connects to the key store described by cfg and returns a
// close function.
type KeyStoreOpener func(ctx context.Context, cfg *config.Config) (KeyStore, func(), error)

type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	openKeys   KeyStoreOpener
}

// NewRootCmd builds the sumctl command tree. A nil openKeys connects to
// PostgreSQL.
func NewRootCmd(openKeys KeyStoreOpener) *cobra.Command {
	if openKeys == nil {
		openKeys = openPostgresKeys
	}
	a := &app{openKeys: openKeys}

	root := &cobra.Command{
		Use:   "sumctl",
		Short: "Extractive summarizer command-line tool",
		Long: `sumctl summarizes documents locally, scores summaries with ROUGE and
manages the API keys of the summarizer service.

Examples:
  sumctl summarize report.pdf -n 5
  sumctl evaluate --reference ref.txt --summary out.txt
  sumctl keys create --name dashboard --rate-limit 120
  sumctl keys list
  sumctl keys revoke 12`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(slog.New(logger.NewHandler(cmd.ErrOrStderr(), a.logLevel, "console")))
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (defaults and SUM_* env when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(a.summarizeCmd())
	root.AddCommand(a.evaluateCmd())
	root.AddCommand(a.keysCmd())
	return root
}

// Execute runs sumctl with the process arguments and returns the exit code.
func Execute() int {
	if err := NewRootCmd(nil).Execute(); err != nil {
		return 1
	}
	return 0
}

func openPostgresKeys(ctx context.Context, cfg *config.Config) (KeyStore, func(), error) {
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return apikey.NewStore(db), func() { db.Close() }, nil
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
