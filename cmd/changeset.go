package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
)

var (
	csBranch       string
	csBaseBranch   string
	csBump         string
	csPackages     []string
	csEnvironments []string
	csSyncCommits  bool
)

var changesetCmd = &cobra.Command{
	Use:   "changeset",
	Short: "Manage the pending changeset of the current branch",
}

var changesetAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create or update the changeset for the current branch",
	Long: `Create the changeset for the current branch if it does not exist,
then record the requested bump, packages and environments. The bump only
escalates: adding a patch intent to a changeset already carrying a minor
bump leaves minor in place.`,
	RunE: runChangesetAdd,
}

var changesetShowCmd = &cobra.Command{
	Use:   "show [branch]",
	Short: "Show the pending changeset of a branch",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChangesetShow,
}

var changesetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all pending changesets",
	RunE:  runChangesetList,
}

var changesetHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived changesets, most recent release first",
	RunE:  runChangesetHistory,
}

func init() {
	changesetAddCmd.Flags().StringVar(&csBranch, "branch", "", "Branch name (default: checked-out branch)")
	changesetAddCmd.Flags().StringVar(&csBaseBranch, "base", "main", "Base branch for commit tracking")
	changesetAddCmd.Flags().StringVar(&csBump, "bump", "patch", "Bump kind: major, minor, patch or none")
	changesetAddCmd.Flags().StringSliceVar(&csPackages, "package", nil, "Affected package (repeatable)")
	changesetAddCmd.Flags().StringSliceVar(&csEnvironments, "env", nil, "Target environment (repeatable)")
	changesetAddCmd.Flags().BoolVar(&csSyncCommits, "sync-commits", false, "Record commits since the base branch")

	changesetCmd.AddCommand(changesetAddCmd)
	changesetCmd.AddCommand(changesetShowCmd)
	changesetCmd.AddCommand(changesetListCmd)
	changesetCmd.AddCommand(changesetHistoryCmd)
	rootCmd.AddCommand(changesetCmd)
}

func runChangesetAdd(cmd *cobra.Command, _ []string) error {
	bump, err := domain.ParseBump(csBump)
	if err != nil {
		return err
	}

	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.ChangesetService) error {
		cs, trackErr := svc.Track(cmd.Context(), application.TrackOptions{
			Branch:       csBranch,
			BaseBranch:   csBaseBranch,
			Bump:         bump,
			Packages:     csPackages,
			Environments: csEnvironments,
			SyncCommits:  csSyncCommits,
		})
		if trackErr != nil {
			return trackErr
		}
		printChangeset(cs)
		return nil
	})
}

func runChangesetShow(cmd *cobra.Command, args []string) error {
	branch := ""
	if len(args) == 1 {
		branch = args[0]
	}

	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.ChangesetService) error {
		cs, showErr := svc.Show(cmd.Context(), branch)
		if showErr != nil {
			return showErr
		}
		printChangeset(cs)
		return nil
	})
}

func runChangesetList(*cobra.Command, []string) error {
	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.ChangesetService) error {
		pending, listErr := svc.List()
		if listErr != nil {
			return listErr
		}
		if len(pending) == 0 {
			fmt.Println("No pending changesets")
			return nil
		}
		for _, cs := range pending {
			fmt.Printf("%s\t%s\t%d packages\t%d commits\n",
				cs.Branch, cs.Bump, len(cs.Packages), len(cs.Commits))
		}
		return nil
	})
}

func runChangesetHistory(*cobra.Command, []string) error {
	container, err := buildContainer(config.Overrides{})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.ChangesetService) error {
		archived, histErr := svc.History()
		if histErr != nil {
			return histErr
		}
		for _, cs := range archived {
			when := ""
			if cs.Release != nil {
				when = cs.Release.AppliedAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%s\t%s\treleased %s\n", cs.Branch, cs.Bump, when)
		}
		return nil
	})
}

func printChangeset(cs *domain.Changeset) {
	fmt.Printf("Branch:       %s\n", cs.Branch)
	fmt.Printf("Bump:         %s\n", cs.Bump)
	fmt.Printf("Packages:     %v\n", cs.Packages)
	fmt.Printf("Environments: %v\n", cs.Environments)
	fmt.Printf("Commits:      %d\n", len(cs.Commits))
	fmt.Printf("Updated:      %s\n", cs.UpdatedAt.Format("2006-01-02 15:04:05"))
}
