package users

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombers/tombers/cmd/cli/api"
	"github.com/tombers/tombers/cmd/cli/output"
	"github.com/tombers/tombers/internal/models"
)

// InitUsers registers the profile and users commands.
func InitUsers(rootCmd *cobra.Command) {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}
	profileCmd.AddCommand(showProfileCmd(), updateProfileCmd())

	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Find other users",
	}
	usersCmd.AddCommand(searchUsersCmd(), availableUsersCmd())

	rootCmd.AddCommand(profileCmd, usersCmd)
}

// ==========================
// Profile
// ==========================
func showProfileCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var u models.User
			if _, err := api.Call(http.MethodGet, "/api/user/profile", nil, &u); err != nil {
				return err
			}
			if asJSON {
				return output.RenderJSON(u)
			}
			renderProfile(u)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func renderProfile(u models.User) {
	age := ""
	if u.Age != nil {
		age = fmt.Sprint(*u.Age)
	}
	output.RenderTable([]string{"Field", "Value"}, [][]interface{}{
		{"ID", u.ID},
		{"Username", u.Username},
		{"Name", strings.TrimSpace(u.FirstName + " " + u.LastName)},
		{"Email", u.Email},
		{"Age", age},
		{"Specialization", u.Specialization},
		{"Skills", strings.Join(u.Skills, ", ")},
		{"Status", u.Status},
		{"Bio", u.Bio},
	})
}

func updateProfileCmd() *cobra.Command {
	var (
		firstName, lastName, specialization, bio, github, linkedin, skills string
		age                                                                int
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields; only the flags given are sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ProfilePatch
			flags := cmd.Flags()
			if flags.Changed("first-name") {
				patch.FirstName = &firstName
			}
			if flags.Changed("last-name") {
				patch.LastName = &lastName
			}
			if flags.Changed("specialization") {
				patch.Specialization = &specialization
			}
			if flags.Changed("bio") {
				patch.Bio = &bio
			}
			if flags.Changed("github") {
				patch.Github = &github
			}
			if flags.Changed("linkedin") {
				patch.Linkedin = &linkedin
			}
			if flags.Changed("age") {
				patch.Age = &age
			}
			if flags.Changed("skills") {
				l := models.SplitTags(skills)
				patch.Skills = &l
			}

			var u models.User
			if _, err := api.Call(http.MethodPut, "/api/user/profile", patch, &u); err != nil {
				return err
			}
			renderProfile(u)
			return nil
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&specialization, "specialization", "", "specialization")
	cmd.Flags().StringVar(&bio, "bio", "", "bio")
	cmd.Flags().StringVar(&github, "github", "", "GitHub URL")
	cmd.Flags().StringVar(&linkedin, "linkedin", "", "LinkedIn URL")
	cmd.Flags().StringVar(&skills, "skills", "", "comma-separated skills")
	cmd.Flags().IntVar(&age, "age", 0, "age")
	return cmd
}

// ==========================
// Users
// ==========================
func searchUsersCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search users by name, specialization or skill",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			return listUsers("/api/users/search?q="+url.QueryEscape(q), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func availableUsersCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List users available for new projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUsers("/api/users/available", asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func listUsers(path string, asJSON bool) error {
	var users []models.User
	if _, err := api.Call(http.MethodGet, path, nil, &users); err != nil {
		return err
	}
	if asJSON {
		return output.RenderJSON(users)
	}
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.ID, u.Username, strings.TrimSpace(u.FirstName + " " + u.LastName), u.Specialization, strings.Join(u.Skills, ", "), u.Status})
	}
	output.RenderTable([]string{"ID", "Username", "Name", "Specialization", "Skills", "Status"}, rows)
	return nil
}
