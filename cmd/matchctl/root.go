package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"recruit-backend/internal/bootstrap"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/config"
)

const app = "matchctl"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "matchctl runs generation, evaluation and backfill jobs against the recruiting store",
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("user", "", "act as this user id instead of the service role; generate requires it")
	rootCmd.PersistentFlags().BoolP("pretty", "p", false, "indent json output")

	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("pretty", rootCmd.PersistentFlags().Lookup("pretty"))
}

// principal returns the caller identity for a command. Without --user the
// command runs with the elevated service role.
func principal() auth.Principal {
	user := strings.TrimSpace(viper.GetString("user"))
	if user == "" {
		return auth.Service()
	}
	return auth.Principal{UserID: user, Role: auth.RoleAuthenticated}
}

// withApp builds the application graph, runs fn and releases it afterwards.
func withApp(fn func(*bootstrap.App) error) error {
	a, err := bootstrap.Build(config.Load())
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer a.Close()
	return fn(a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	if viper.GetBool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
