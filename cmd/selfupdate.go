package cmd

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the repository releases are published to.
var githubRepoSlug = "dbx-tools/dbxdeploy"

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update dbxdeploy to the latest version",
		Long: `Checks for the latest release of dbxdeploy on GitHub and, if a newer
version is available, downloads it and replaces the current binary.`,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	version := rootCmd.Version
	if version == "" || version == "dev" {
		return fmt.Errorf("cannot self-update a development version (%q); install a released build first", version)
	}

	fmt.Printf("Current version: %s\n", version)
	fmt.Println("Checking for updates...")

	latest, err := selfupdate.UpdateSelf(context.Background(), version, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("self-update failed: %w", err)
	}

	if latest.Version() == version {
		fmt.Println("Already up to date.")
	} else {
		fmt.Printf("Successfully updated to version %s\n", latest.Version())
	}
	return nil
}
