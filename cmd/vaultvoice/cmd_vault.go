package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/vaultvoice-backend/internal/agents"
	"github.com/yungbote/vaultvoice-backend/internal/app"
	"github.com/yungbote/vaultvoice-backend/internal/db"
	"github.com/yungbote/vaultvoice-backend/internal/types"
)

var (
	trainAgent string
	trainFile  string
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create (or find) a user's vault root and partition folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			folders, err := a.Services.Vault.Provision(ctx, userID)
			if err != nil {
				return fmt.Errorf("provision %s: %w", userID, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root\t%s\n", folders.RootID)
			names := make([]string, 0, len(folders.Partitions))
			for p := range folders.Partitions {
				names = append(names, string(p))
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%s\t%s\n", name, folders.Partitions[types.Partition(name)])
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.DB, log)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.AutoMigrateAll(); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		log.Info("schema up to date", "driver", cfg.DB.Driver)
		return nil
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Set an agent's operator guidance",
	Long: `Stores free-text guidance that is added to one agent's system prompt on
every turn. An empty file clears it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id := types.AgentID(strings.ToLower(strings.TrimSpace(trainAgent)))
		if !agents.Has(id) {
			return fmt.Errorf("unknown agent %q", trainAgent)
		}
		content, err := readGuidance(cmd.InOrStdin(), trainFile)
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := a.Repos.Training.Upsert(ctx, nil, id, content); err != nil {
				return fmt.Errorf("save guidance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d bytes of guidance for %s\n", len(content), id)
			return nil
		})
	},
}

func readGuidance(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read guidance: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
