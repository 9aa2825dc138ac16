package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/snapshot"
	"github.com/Wyydra/huddle/internal/config"
	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/service"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	flagUserSnapshot string
	flagUsername     string
	flagUserName     string
	flagPassword     string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts in the record store snapshot",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Long: `Create an account in the snapshot file used by "huddle serve --snapshot".
Run it while the server is stopped: the server rewrites the file on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := snapshotPath()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store := memory.NewStore(0)
		if err := snapshot.Load(ctx, path, store); err != nil {
			return err
		}
		accounts := service.NewAccountService(store.Users, store.Groups, store.Friends, config.DefaultBcryptCost)
		u, err := accounts.Register(ctx, domain.Register{
			Name:     flagUserName,
			Username: domain.Username(flagUsername),
			Password: flagPassword,
		})
		if err != nil {
			return err
		}
		if err := snapshot.Save(ctx, path, store); err != nil {
			return err
		}
		fmt.Println(titleStyle.Render("Created ") + string(u.Username) + mutedStyle.Render(" in "+path))
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := snapshotPath()
		if err != nil {
			return err
		}
		store := memory.NewStore(0)
		if err := snapshot.Load(cmd.Context(), path, store); err != nil {
			return err
		}
		users, err := store.Users.List(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Username", "Name"})
		for _, u := range users {
			t.AppendRow(table.Row{u.Username, u.Name})
		}
		t.SetCaption("%d account(s)", len(users))
		t.Render()
		return nil
	},
}

func snapshotPath() (string, error) {
	if flagUserSnapshot != "" {
		return flagUserSnapshot, nil
	}
	cfg, err := config.Load(config.Options{LogLevel: flagLogLevel, LogFormat: flagLogFormat})
	if err != nil {
		return "", err
	}
	if cfg.SnapshotPath == "" {
		return "", errors.New("no snapshot file: pass --snapshot or set HUDDLE_SNAPSHOT_PATH")
	}
	return cfg.SnapshotPath, nil
}

func init() {
	usersCmd.PersistentFlags().StringVar(&flagUserSnapshot, "snapshot", "", "snapshot file (default $HUDDLE_SNAPSHOT_PATH)")

	usersAddCmd.Flags().StringVarP(&flagUsername, "username", "u", "", "login name")
	usersAddCmd.Flags().StringVarP(&flagUserName, "name", "n", "", "display name")
	usersAddCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "password")
	usersAddCmd.MarkFlagRequired("username")
	usersAddCmd.MarkFlagRequired("name")
	usersAddCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
}
