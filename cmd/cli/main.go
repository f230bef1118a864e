package main

import (
	"fmt"
	"os"

	"github.com/tombers/tombers/cmd/cli/auth"
	"github.com/tombers/tombers/cmd/cli/projects"
	"github.com/tombers/tombers/cmd/cli/root"
	"github.com/tombers/tombers/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	users.InitUsers(rootCmd)
	projects.InitProjects(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
