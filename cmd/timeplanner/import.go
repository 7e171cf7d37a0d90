package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"time-planner/internal/service"
)

func importCmd(configPath *string) *cobra.Command {
	var (
		email    string
		password string
		file     string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Register an account and migrate locally kept planner data into it",
		Long: `Register a new account seeded from an exported bundle.

The bundle is JSON or YAML (picked by file extension) with categories,
templates and tasks. If any part of the import fails the account is not
created.

Examples:
  timeplanner import --email me@example.com --password 'S3cret!pass' --file planner.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open bundle: %w", err)
			}
			defer f.Close()

			bundle, err := service.DecodeBundle(f, filepath.Ext(file))
			if err != nil {
				return err
			}

			session, err := a.accounts.Register(cmd.Context(), service.RegisterInput{
				Email:    email,
				Password: password,
				Bundle:   bundle,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				AccountID string                   `json:"accountId"`
				Token     string                   `json:"token"`
				Migration *service.MigrationReport `json:"migration,omitempty"`
			}{session.Account.ID.String(), session.Token, session.Migration})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVarP(&file, "file", "f", "", "bundle file (.json, .yaml, .yml)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
