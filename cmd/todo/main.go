// todo is the command-line client: it logs in against a Forgejo instance,
// keeps the session in a file under the user config dir, and drives the todo
// server's REST API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"forgetodo/internal/api"
	"forgetodo/internal/session"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Personal todos backed by your Forgejo account",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("TODO_SERVER", "http://localhost:8080"), "todo server URL")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newListCmd(),
		newAddCmd(),
		newEditCmd(),
		newDoneCmd(true),
		newDoneCmd(false),
		newRemoveCmd(),
		newStatsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func sessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "forgetodo", "session.json"), nil
}

// newManager builds the session manager and restores any saved session.
func newManager(ctx context.Context) (*session.Manager, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	m := session.NewManager(serverURL, path, http.DefaultClient)
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// requireClient is the CLI's route guard: commands that need auth get a
// clean "not logged in" error instead of partial output.
func requireClient(ctx context.Context) (*api.Client, error) {
	m, err := newManager(ctx)
	if err != nil {
		return nil, err
	}
	if !m.IsAuthenticated() {
		return nil, fmt.Errorf("not logged in, run `todo login` first")
	}
	return api.NewClient(m), nil
}
