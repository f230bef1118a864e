package auth

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tombers/tombers/cmd/cli/api"
	"github.com/tombers/tombers/cmd/cli/config"
	"github.com/tombers/tombers/internal/models"
)

// InitAuth registers register, login and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd())
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var in struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
	}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var summary models.UserSummary
			resp, err := api.Call(http.MethodPost, "/api/register", in, &summary)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			if err := storeSession(resp); err != nil {
				return err
			}
			fmt.Printf("Registered as %s (id %d). Session stored locally.\n", summary.Username, summary.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Email == "" || in.Password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			var summary models.UserSummary
			resp, err := api.Call(http.MethodPost, "/api/login", in, &summary)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := storeSession(resp); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s. Session stored locally.\n", summary.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	return cmd
}

func storeSession(resp *http.Response) error {
	token := api.SessionToken(resp)
	if token == "" {
		return fmt.Errorf("server did not return a session")
	}
	if err := config.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the local token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadToken(); err != nil {
				fmt.Println("No user logged in.")
				return nil
			}
			if _, err := api.Call(http.MethodPost, "/api/logout", nil, nil); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			if _, err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Println("Logged out successfully.")
			return nil
		},
	}
}
