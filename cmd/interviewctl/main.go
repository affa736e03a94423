// Command interviewctl inspects persisted interview sessions, issues
// reviewer tokens and migrates the snapshot database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"interview-backend/internal/bootstrap"
	"interview-backend/internal/candidates"
	"interview-backend/internal/contact"
	"interview-backend/internal/extract"
	"interview-backend/internal/session"
	"interview-backend/internal/shared/auth"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/storage/db"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(loadConfig func() config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "interviewctl",
		Short:        "Inspect interview sessions",
		SilenceUsage: true,
	}
	root.AddCommand(
		newListCmd(loadConfig),
		newShowCmd(loadConfig),
		newExtractCmd(),
		newTokenCmd(loadConfig),
		newMigrateCmd(loadConfig),
	)
	return root
}

func withApp(cmd *cobra.Command, loadConfig func() config.Config, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap.Build(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer app.Shutdown(ctx)
	return fn(ctx, app)
}

func newListCmd(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List candidates, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, loadConfig, func(ctx context.Context, app *bootstrap.App) error {
				list, err := app.Sessions.List(ctx)
				if err != nil {
					return err
				}
				return writeList(cmd.OutOrStdout(), list)
			})
		},
	}
}

func writeList(out io.Writer, list []candidates.Candidate) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tANSWERED\tSCORE\tCREATED")
	for _, c := range list {
		answered := 0
		for _, q := range c.Questions {
			if q.Answered() {
				answered++
			}
		}
		score := "-"
		if c.FinalScore != nil {
			score = fmt.Sprintf("%.0f", *c.FinalScore)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			c.ID, deref(c.Name), c.Status, answered, len(c.Questions), score, c.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func newShowCmd(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <candidate-id>",
		Short: "Print one session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, loadConfig, func(ctx context.Context, app *bootstrap.App) error {
				view, err := app.Sessions.Snapshot(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					session.View
					Transcript any `json:"transcript"`
				}{view, session.Transcript(view.Candidate)})
			})
		},
	}
}

func newExtractCmd() *cobra.Command {
	var mimeType string
	cmd := &cobra.Command{
		Use:   "extract <resume-file>",
		Short: "Extract text and contact details from a PDF or DOCX resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			text, err := extract.TextFromBytes(ctx, data, mimeType, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Contact     contact.Info `json:"contact"`
				LooksLikeCV bool         `json:"looksLikeResume"`
				Text        string       `json:"text"`
			}{contact.Extract(text), extract.LooksLikeResume(text), text})
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime", "", "declared content type (defaults to the file extension)")
	return cmd
}

func newTokenCmd(loadConfig func() config.Config) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <reviewer-id>",
		Short: "Issue a reviewer bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			signer, err := auth.NewSigner(cfg.JWTSecret, cfg.Env)
			if err != nil {
				return err
			}
			token, err := signer.Sign(args[0], auth.RoleReviewer, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func newMigrateCmd(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply or inspect the snapshot table schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sqlDB, err := db.Connect(ctx, loadConfig().DatabaseURL, db.Options{MaxOpenConns: 1})
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			m, err := db.NewMigrator(sqlDB)
			if err != nil {
				return err
			}
			switch action {
			case "down":
				return m.Down(ctx)
			case "version":
				v, err := m.Version()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
				return err
			default:
				return m.Up(ctx)
			}
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
