package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(a.keysCreateCmd(), a.keysRevokeCmd(), a.keysListCmd())
	return cmd
}

func (a *app) keysCreateCmd() *cobra.Command {
	var (
		name      string
		rateLimit int
		expiresIn time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the raw key is printed once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rateLimit <= 0 {
				rateLimit = a.cfg.RateLimit.DefaultLimit
			}
			var expiresAt *time.Time
			if expiresIn > 0 {
				t := time.Now().Add(expiresIn).UTC()
				expiresAt = &t
			}

			store, closeStore, err := a.openKeys(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			raw, info, err := store.Create(cmd.Context(), name, rateLimit, expiresAt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:         %s\n", info.ID)
			fmt.Fprintf(out, "name:       %s\n", info.Name)
			fmt.Fprintf(out, "rate limit: %d/%s\n", info.RateLimit, a.cfg.RateLimit.Window)
			if info.ExpiresAt != nil {
				fmt.Fprintf(out, "expires:    %s\n", info.ExpiresAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "api key:    %s\n\nStore this key now; it cannot be shown again.\n", raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per window (0 uses the configured default)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "lifetime of the key, e.g. 720h (0 never expires)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) keysRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Deactivate an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openKeys(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Revoke(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("revoking key %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key %s revoked\n", args[0])
			return nil
		},
	}
}

func (a *app) keysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openKeys(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			keys, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tRATE LIMIT\tCREATED\tEXPIRES")
			for _, k := range keys {
				expires := "never"
				if k.ExpiresAt != nil {
					expires = k.ExpiresAt.Format(time.DateOnly)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", k.ID, k.Name, k.RateLimit, k.CreatedAt.Format(time.DateOnly), expires)
			}
			return tw.Flush()
		},
	}
}
