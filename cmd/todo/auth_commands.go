package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var (
		forgeURL string
		token    string
		username string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a Forgejo API token or username/password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if forgeURL == "" {
				return fmt.Errorf("--url is required")
			}
			if token == "" && username == "" {
				return fmt.Errorf("pass --token or --user")
			}

			m, err := newManager(cmd.Context())
			if err != nil {
				return err
			}

			if token != "" {
				profile, err := m.LoginWithToken(cmd.Context(), token, forgeURL)
				if err != nil {
					return err
				}
				fmt.Printf("logged in as %s\n", profile.Login)
				return nil
			}

			fmt.Fprintf(os.Stderr, "password for %s: ", username)
			pw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			profile, err := m.LoginWithBasicAuth(cmd.Context(), username, string(pw), forgeURL)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", profile.Login)
			return nil
		},
	}
	cmd.Flags().StringVar(&forgeURL, "url", os.Getenv("FORGE_BASE_URL"), "Forgejo instance URL")
	cmd.Flags().StringVar(&token, "token", "", "personal API token")
	cmd.Flags().StringVar(&username, "user", "", "username (prompts for password)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd.Context())
			if err != nil {
				return err
			}
			m.Logout()
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd.Context())
			if err != nil {
				return err
			}
			if !m.IsAuthenticated() {
				return fmt.Errorf("not logged in")
			}
			p := m.Profile()
			fmt.Printf("%s (%s) @ %s\n", p.Login, p.Email, m.BaseURL())
			return nil
		},
	}
}
