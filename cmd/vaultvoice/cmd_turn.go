package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/vaultvoice-backend/internal/app"
)

var userID string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run one turn through the router and print the reply",
	Example: `  vaultvoice ask -u u1 "took 250mcg of bpc this morning"
  vaultvoice ask "what's the pricing?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		return withApp(func(ctx context.Context, a *app.App) error {
			res := a.Services.Orchestrator.Handle(ctx, userID, message, nil)
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", res.AgentID, res.Reply)
			return a.Drain(ctx)
		})
	},
}

var routeCmd = &cobra.Command{
	Use:   "route [message]",
	Short: "Print the agent a message would be routed to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		return withApp(func(ctx context.Context, a *app.App) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.Services.Orchestrator.Route(ctx, message))
			return nil
		})
	},
}
