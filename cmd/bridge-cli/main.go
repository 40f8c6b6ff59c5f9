package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuqie6/SkillBridge/internal/bootstrap"
	"github.com/yuqie6/SkillBridge/internal/pkg/buildinfo"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
	"github.com/yuqie6/SkillBridge/internal/service"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

// noCore marks commands that run without opening the store.
const noCore = "no-core"

func main() {
	rootCmd := &cobra.Command{
		Use:   "bridge",
		Short: "SkillBridge - skill matching and engagement for internal teams",
		Long:  `bridge runs maintenance and reporting tasks against the SkillBridge store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[noCore]; ok {
				return nil
			}
			var err error
			core, err = bootstrap.NewCore(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(leaderboardCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(streakCmd())
	rootCmd.AddCommand(badgesCmd())
	rootCmd.AddCommand(pointsCmd())
	rootCmd.AddCommand(reconcileCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the build version",
		Annotations: map[string]string{noCore: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}

// configCmd writes a starter config file.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default config",
		Annotations: map[string]string{noCore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.WriteFile(path, config.Defaults()); err != nil {
				return err
			}
			fmt.Println(okStyle.Render("wrote " + path))
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "target path (default config/config.yaml)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func leaderboardCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show department totals, or one user's standing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if user != "" {
				st, err := core.Services.Leaderboard.Standing(ctx, user)
				if err != nil {
					return err
				}
				fmt.Println(renderStanding(st))
				return nil
			}
			teams, err := core.Services.Leaderboard.Teams(ctx)
			if err != nil {
				return err
			}
			fmt.Println(renderTeams(teams))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "show this user's rank in their department")
	return cmd
}

func suggestCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Regenerate pending match suggestions for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := core.Services.Suggestions.Generate(ctx, user); err != nil {
				return err
			}
			views, err := core.Services.Suggestions.List(ctx, user, "")
			if err != nil {
				return err
			}
			fmt.Println(renderSuggestions(user, views))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "subject user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func streakCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Recompute and show a user's connection streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := core.Services.Profiles.Get(ctx, user); err != nil {
				return err
			}
			st, err := core.Services.Streaks.Recompute(ctx, user)
			if err != nil {
				return err
			}
			fmt.Println(renderStreak(st))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func badgesCmd() *cobra.Command {
	var user string
	var evaluate bool
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "List a user's badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if evaluate {
				granted, err := core.Services.Badges.Evaluate(ctx, user)
				if err != nil {
					return err
				}
				for _, g := range granted {
					fmt.Println(okStyle.Render("granted " + g.BadgeID))
				}
			}
			grants, err := core.Services.Badges.List(ctx, user)
			if err != nil {
				return err
			}
			fmt.Println(renderBadges(core.Services.Badges.Catalog(), grants))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	cmd.Flags().BoolVar(&evaluate, "evaluate", false, "evaluate badge rules before listing")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func pointsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Show a user's point ledger summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := core.Services.Ledger.Summary(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Println(renderPoints(sum))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func reconcileCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair profile totals that drifted from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if user != "" {
				res, err := core.Services.Ledger.Reconcile(ctx, user)
				if err != nil {
					return err
				}
				fmt.Println(renderReconcile([]service.ReconcileResult{*res}))
				return nil
			}
			all, err := core.Services.Ledger.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			fmt.Println(renderReconcile(all))
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "only this user (default: everyone)")
	return cmd
}
