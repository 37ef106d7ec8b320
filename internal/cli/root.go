// Package cli implements the smarttodo command-line client.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/isdelr/smarttodo-be/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer = "http://localhost:8080"
	envPrefix     = "SMARTTODO"
)

// app carries the per-invocation configuration shared by all commands.
type app struct {
	v *viper.Viper
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "smarttodo",
		Short: "Smart To-Do command-line client",
		Long: `smarttodo talks to a Smart To-Do server.

Log in once with "smarttodo login"; the session is cached on disk until you
log out or the server rejects it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.smarttodo/config.yaml)")
	rootCmd.PersistentFlags().String("server", defaultServer, "API base URL")
	rootCmd.PersistentFlags().String("session", "", "session file (default ~/.smarttodo/session.yaml)")

	rootCmd.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.forgotPasswordCmd(),
		a.resetPasswordCmd(),
		a.tasksCmd(),
		a.suggestCmd(),
		a.categoriesCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd := NewRootCommand()
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig merges flags, SMARTTODO_* env vars and the optional config file.
func (a *app) loadConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	for _, name := range []string{"server", "session"} {
		if err := a.v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile = filepath.Join(smarttodoDir(), "config.yaml")
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil
		}
	}

	a.v.SetConfigFile(configFile)
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configFile, err)
	}
	return nil
}

func (a *app) sessionPath() string {
	if p := a.v.GetString("session"); p != "" {
		return p
	}
	return filepath.Join(smarttodoDir(), "session.yaml")
}

func (a *app) client() *client.Client {
	return client.New(a.v.GetString("server"), client.LoadSession(a.sessionPath()))
}

func smarttodoDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smarttodo"
	}
	return filepath.Join(home, ".smarttodo")
}
