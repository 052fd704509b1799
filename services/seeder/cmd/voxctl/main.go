package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"voxhire/services/seeder"
)

var (
	apiBase string
	userID  string
	orgID   string
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "voxctl",
		Short:         "Operator CLI for the voxhire hiring API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", envOr("VOXHIRE_API", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&userID, "user", envOr("VOXHIRE_USER", ""), "staff user id")
	root.PersistentFlags().StringVar(&orgID, "org", envOr("VOXHIRE_ORG", ""), "staff org id")

	root.AddCommand(templatesCmd(logger), invitesCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireIdentity() error {
	if userID == "" || orgID == "" {
		return fmt.Errorf("--user and --org are required (or VOXHIRE_USER / VOXHIRE_ORG)")
	}
	return nil
}

func templatesCmd(logger zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage interview templates",
	}

	seed := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create templates and invites from a seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIdentity(); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			parsed, err := seeder.Parse(f)
			if err != nil {
				return err
			}

			client := seeder.NewClient(apiBase, userID, orgID, logger)
			issued, err := client.Apply(cmd.Context(), parsed)
			for _, inv := range issued {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\texpires %s\n",
					inv.JobTitle, inv.Email, inv.Token, inv.ExpiresAt.Format(time.RFC3339))
			}
			return err
		},
	}

	cmd.AddCommand(seed)
	return cmd
}

func invitesCmd(logger zerolog.Logger) *cobra.Command {
	var (
		templateID   string
		name         string
		email        string
		expiresHours int
	)

	cmd := &cobra.Command{
		Use:   "invites",
		Short: "Manage interview invites",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Issue one invite under an existing template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireIdentity(); err != nil {
				return err
			}
			if templateID == "" || name == "" || email == "" {
				return fmt.Errorf("--template, --name, and --email are required")
			}

			client := seeder.NewClient(apiBase, userID, orgID, logger)
			inv, err := client.CreateInvite(cmd.Context(), templateID, seeder.SeedInvite{
				Name:           name,
				Email:          email,
				ExpiresInHours: expiresHours,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\texpires %s\n", inv.Token, inv.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	create.Flags().StringVar(&templateID, "template", "", "template id")
	create.Flags().StringVar(&name, "name", "", "candidate name")
	create.Flags().StringVar(&email, "email", "", "candidate email")
	create.Flags().IntVar(&expiresHours, "expires-hours", 0, "invite TTL in hours (default: server setting)")

	cmd.AddCommand(create)
	return cmd
}
