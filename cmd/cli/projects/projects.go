package projects

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombers/tombers/cmd/cli/api"
	"github.com/tombers/tombers/cmd/cli/output"
	"github.com/tombers/tombers/internal/models"
)

// ==========================
// Init Projects
// ==========================
func InitProjects(rootCmd *cobra.Command) {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	projectsCmd.AddCommand(
		listCmd("list", "List all projects", "/api/projects"),
		listCmd("active", "List active projects, newest first", "/api/projects/active"),
		listCmd("incomplete", "List unfinished projects, most advanced first", "/api/projects/incomplete"),
		searchCmd(),
		getCmd(),
		createCmd(),
		updateCmd(),
		deleteCmd(),
		reactCmd("like", "Show interest in joining a project"),
		reactCmd("dislike", "Withdraw interest in a project"),
		interestedCmd(),
		decideCmd(models.InterestAccept, "accept", "Accept an interested user as a member"),
		decideCmd(models.InterestReject, "reject", "Turn down an interested user"),
	)

	rootCmd.AddCommand(projectsCmd)
}

func renderProjects(projects []models.Project) {
	rows := make([][]interface{}, 0, len(projects))
	for _, p := range projects {
		progress := ""
		if p.Progress != nil {
			progress = fmt.Sprintf("%d%%", *p.Progress)
		}
		rows = append(rows, []interface{}{p.ID, p.Title, p.Status, progress, strings.Join(p.SkillsNeeded, ", "), p.CreatedAt})
	}
	output.RenderTable([]string{"ID", "Title", "Status", "Progress", "Skills", "Created"}, rows)
}

func renderProject(p models.Project, asJSON bool) error {
	if asJSON {
		return output.RenderJSON(p)
	}
	renderProjects([]models.Project{p})
	return nil
}

// ==========================
// LIST
// ==========================
func listCmd(use, short, path string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return list(path, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func list(path string, asJSON bool) error {
	var projects []models.Project
	if _, err := api.Call(http.MethodGet, path, nil, &projects); err != nil {
		return err
	}
	if asJSON {
		return output.RenderJSON(projects)
	}
	renderProjects(projects)
	return nil
}

// ==========================
// SEARCH
// ==========================
func searchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search projects by title, technology or skill",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			return list("/api/projects/search?q="+url.QueryEscape(q), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// GET
// ==========================
func getCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Project
			if _, err := api.Call(http.MethodGet, "/api/projects/"+url.PathEscape(args[0]), nil, &p); err != nil {
				return err
			}
			return renderProject(p, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// CREATE / UPDATE
// ==========================

type patchFlags struct {
	title, description, imageURL, status, skills string
	progress                                     int
}

func (f *patchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "project title")
	cmd.Flags().StringVar(&f.description, "description", "", "project description")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "cover image URL")
	cmd.Flags().StringVar(&f.status, "status", "", "ACTIVE, INACTIVE, COMPLETED or ON_HOLD")
	cmd.Flags().StringVar(&f.skills, "skills", "", "comma-separated skills needed")
	cmd.Flags().IntVar(&f.progress, "progress", 0, "progress percentage (0-100)")
}

// patch holds only the flags that were given on the command line.
func (f *patchFlags) patch(cmd *cobra.Command) models.ProjectPatch {
	var p models.ProjectPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		p.Title = &f.title
	}
	if flags.Changed("description") {
		p.Description = &f.description
	}
	if flags.Changed("image-url") {
		p.ImageURL = &f.imageURL
	}
	if flags.Changed("status") {
		p.Status = &f.status
	}
	if flags.Changed("skills") {
		l := models.SplitTags(f.skills)
		p.SkillsNeeded = &l
	}
	if flags.Changed("progress") {
		p.Progress = &f.progress
	}
	return p
}

func createCmd() *cobra.Command {
	var f patchFlags
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Project
			if _, err := api.Call(http.MethodPost, "/api/projects", f.patch(cmd), &p); err != nil {
				return err
			}
			return renderProject(p, asJSON)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func updateCmd() *cobra.Command {
	var f patchFlags
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a project; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Project
			if _, err := api.Call(http.MethodPut, "/api/projects/"+url.PathEscape(args[0]), f.patch(cmd), &p); err != nil {
				return err
			}
			return renderProject(p, asJSON)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Message string         `json:"message"`
				Project models.Project `json:"project"`
			}
			if _, err := api.Call(http.MethodDelete, "/api/projects/"+url.PathEscape(args[0]), nil, &out); err != nil {
				return err
			}
			fmt.Printf("Project %d (%s) deleted\n", out.Project.ID, out.Project.Title)
			return nil
		},
	}
}

// ==========================
// INTEREST
// ==========================
func reactCmd(action, short string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   action + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Project
			if _, err := api.Call(http.MethodPost, "/api/projects/"+url.PathEscape(args[0])+"/"+action, nil, &p); err != nil {
				return err
			}
			return renderProject(p, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

type interestedUsers struct {
	ProjectID       int           `json:"projectId"`
	ProjectTitle    string        `json:"projectTitle"`
	InterestedUsers []models.User `json:"interestedUsers"`
	TotalInterested int           `json:"totalInterested"`
}

func interestedCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "interested [id]",
		Short: "List users waiting to join a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out interestedUsers
			if _, err := api.Call(http.MethodGet, "/api/projects/"+url.PathEscape(args[0])+"/interested", nil, &out); err != nil {
				return err
			}
			if asJSON {
				return output.RenderJSON(out)
			}
			fmt.Printf("%s: %d interested\n", out.ProjectTitle, out.TotalInterested)
			rows := make([][]interface{}, 0, len(out.InterestedUsers))
			for _, u := range out.InterestedUsers {
				rows = append(rows, []interface{}{u.ID, u.Username, u.FirstName + " " + u.LastName, u.Specialization})
			}
			output.RenderTable([]string{"ID", "Username", "Name", "Specialization"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func decideCmd(action, use, short string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use + " [id] [user-id]",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[1])
			}
			payload := map[string]interface{}{"userId": userID, "action": action}
			var p models.Project
			if _, err := api.Call(http.MethodPost, "/api/projects/"+url.PathEscape(args[0])+"/manage-interested", payload, &p); err != nil {
				return err
			}
			return renderProject(p, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
