// Package cmd (sites.go) defines the sites command group for provisioning
// and managing group-connected SharePoint team sites.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/office365go/office365-client/internal/app"
	"github.com/office365go/office365-client/internal/ui"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage SharePoint team sites",
	Long:  "Provides commands to create group-connected SharePoint sites, check provisioning status and delete sites.",
}

// resolveSiteURL picks the SharePoint root from --site or the configured
// default. Everything in this group needs one.
func resolveSiteURL(a *app.App, cmd *cobra.Command) (string, error) {
	siteURL, _ := cmd.Flags().GetString("site")
	if siteURL == "" {
		siteURL = a.Config.SiteURL
	}
	if siteURL == "" {
		return "", fmt.Errorf("no SharePoint site URL given; pass --site or set site_url in the configuration file")
	}
	return siteURL, nil
}

var sitesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group-connected team site",
	Long: `Creates a new Microsoft 365 group with an attached SharePoint team site.
Provisioning is asynchronous; with --wait the command polls until the site
is ready.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return sitesCreateLogic(a, cmd, args)
	},
}

func sitesCreateLogic(a *app.App, cmd *cobra.Command, args []string) error {
	siteURL, err := resolveSiteURL(a, cmd)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	alias, _ := cmd.Flags().GetString("alias")
	public, _ := cmd.Flags().GetBool("public")
	description, _ := cmd.Flags().GetString("description")
	wait, _ := cmd.Flags().GetBool("wait")

	if name == "" {
		return fmt.Errorf("a display name is required (--name)")
	}
	if alias == "" {
		return fmt.Errorf("a mail alias is required (--alias)")
	}

	info, err := a.SDK.CreateGroupSite(cmd.Context(), siteURL, name, alias, public, description)
	if err != nil {
		return fmt.Errorf("creating site: %w", err)
	}

	if wait && !info.Ready() {
		fmt.Println("Site provisioning started, waiting for it to finish...")
		info, err = a.SDK.WaitForSite(cmd.Context(), siteURL, info.GroupID, 0)
		if err != nil {
			return fmt.Errorf("waiting for site: %w", err)
		}
	}

	ui.DisplaySiteInfo(info)
	return nil
}

var sitesStatusCmd = &cobra.Command{
	Use:   "status <group-id>",
	Short: "Show the provisioning status of a group site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return sitesStatusLogic(a, cmd, args)
	},
}

func sitesStatusLogic(a *app.App, cmd *cobra.Command, args []string) error {
	siteURL, err := resolveSiteURL(a, cmd)
	if err != nil {
		return err
	}

	info, err := a.SDK.GetSiteStatus(cmd.Context(), siteURL, args[0])
	if err != nil {
		return fmt.Errorf("checking site status: %w", err)
	}
	ui.DisplaySiteInfo(info)
	return nil
}

var sitesWaitCmd = &cobra.Command{
	Use:   "wait <group-id>",
	Short: "Wait for a group site to finish provisioning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return sitesWaitLogic(a, cmd, args)
	},
}

func sitesWaitLogic(a *app.App, cmd *cobra.Command, args []string) error {
	siteURL, err := resolveSiteURL(a, cmd)
	if err != nil {
		return err
	}

	intervalSecs, _ := cmd.Flags().GetInt("interval")
	info, err := a.SDK.WaitForSite(cmd.Context(), siteURL, args[0], time.Duration(intervalSecs)*time.Second)
	if err != nil {
		return fmt.Errorf("waiting for site: %w", err)
	}
	ui.DisplaySiteInfo(info)
	return nil
}

var sitesRmCmd = &cobra.Command{
	Use:     "rm <site-url>",
	Aliases: []string{"delete"},
	Short:   "Delete a group site",
	Long:  "Deletes the group-connected site with the given absolute URL. The associated Microsoft 365 group is removed as well.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return sitesRmLogic(a, cmd, args)
	},
}

func sitesRmLogic(a *app.App, cmd *cobra.Command, args []string) error {
	siteURL, err := resolveSiteURL(a, cmd)
	if err != nil {
		return err
	}

	if err := a.SDK.DeleteGroupSite(cmd.Context(), siteURL, args[0]); err != nil {
		return fmt.Errorf("deleting site: %w", err)
	}
	ui.Success(fmt.Sprintf("Site %s deleted.", args[0]))
	return nil
}

func init() {
	rootCmd.AddCommand(sitesCmd)
	sitesCmd.PersistentFlags().String("site", "", "SharePoint root site URL (defaults to site_url from the configuration file)")

	sitesCreateCmd.Flags().String("name", "", "Display name for the new site")
	sitesCreateCmd.Flags().String("alias", "", "Mail alias for the backing Microsoft 365 group")
	sitesCreateCmd.Flags().Bool("public", false, "Make the group public instead of private")
	sitesCreateCmd.Flags().String("description", "", "Site description")
	sitesCreateCmd.Flags().Bool("wait", false, "Poll until provisioning finishes")
	sitesCmd.AddCommand(sitesCreateCmd)

	sitesCmd.AddCommand(sitesStatusCmd)

	sitesWaitCmd.Flags().Int("interval", 5, "Polling interval in seconds")
	sitesCmd.AddCommand(sitesWaitCmd)

	sitesCmd.AddCommand(sitesRmCmd)
}
