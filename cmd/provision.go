package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dbxdeploy/internal/config"
	"dbxdeploy/internal/provision"
)

var (
	provisionRepo     string
	provisionReviewer string
)

// provisionCmdDef defines the provision command structure
var provisionCmdDef = &cobra.Command{
	Use:   "provision",
	Short: "Provision the GitHub environments the CI pipeline deploys from",
	Long: `Creates one GitHub environment per deployment target (dev, test, prod)
on the repository and attaches the Databricks workspace host and access token
as environment secrets. Secret values are read from the per-environment
suffixed variables (DATABRICKS_HOST_DEV, DATABRICKS_TOKEN_DEV, ...); an
environment whose credentials are not set is created without secrets, with a
warning.

With --reviewer, deployments to the prod environment require manual approval
from the given GitHub user.

Requires the gh CLI, authenticated with permission to administer the
repository.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := provision.CheckInstalled(); err != nil {
			return err
		}

		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}

		repo := settings.GitHub.Repo
		if provisionRepo != "" {
			repo = provisionRepo
		}
		reviewer := settings.GitHub.ProdReviewer
		if provisionReviewer != "" {
			reviewer = provisionReviewer
		}

		fmt.Println("--- GitHub Environment Provisioning ---")
		if repo != "" {
			fmt.Printf("Repository: %s\n", repo)
		} else {
			fmt.Println("Repository: resolved from the current working tree")
		}
		if reviewer != "" {
			fmt.Printf("Prod reviewer: %s\n", reviewer)
		}
		fmt.Println("---------------------------------------")

		provisioner := provision.NewProvisioner(provision.Options{
			Repo:         repo,
			ProdReviewer: reviewer,
		})
		if err := provisioner.Run(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("All environments provisioned.")
		return nil
	},
}

func newProvisionCmd() *cobra.Command {
	provisionCmdDef.Flags().StringVar(&provisionRepo, "repo", "", "Repository to provision as owner/name (overrides config)")
	provisionCmdDef.Flags().StringVar(&provisionReviewer, "reviewer", "", "GitHub handle required to approve prod deployments")
	return provisionCmdDef
}
