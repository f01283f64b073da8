package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
)

var (
	relStrategy      string
	relPrereleaseTag string
	relSnapshot      bool
	relTag           bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Apply the pending changesets as a release",
	Long: `Merge every pending changeset, resolve the version bumps under the
configured strategy, rewrite manifest versions and internal dependency pins,
update changelogs, and archive the consumed changesets.`,
	RunE: runRelease,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the version bump plan without applying it",
	RunE:  runPlan,
}

func init() {
	for _, cmd := range []*cobra.Command{releaseCmd, planCmd} {
		cmd.Flags().StringVar(&relStrategy, "strategy", "", "Override the versioning strategy")
		cmd.Flags().StringVar(&relPrereleaseTag, "prerelease", "", "Prerelease tag, e.g. beta")
		cmd.Flags().BoolVar(&relSnapshot, "snapshot", false, "Derive the prerelease tag from the snapshot template")
	}
	releaseCmd.Flags().BoolVar(&relTag, "git-tag", false, "Create a git tag per released package")

	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(planCmd)
}

func releaseOverrides() config.Overrides {
	return config.Overrides{Strategy: config.Strategy(relStrategy)}
}

func runPlan(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer(releaseOverrides())
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.ReleaseService) error {
		plan, planErr := svc.Plan(cmd.Context(), application.ReleaseOptions{
			PrereleaseTag: relPrereleaseTag,
			Snapshot:      relSnapshot,
		})
		if planErr != nil {
			return planErr
		}
		printPlan(plan)
		return nil
	})
}

func runRelease(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer(releaseOverrides())
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.ReleaseService) error {
		result, relErr := svc.Release(cmd.Context(), application.ReleaseOptions{
			DryRun:        dryRun,
			PrereleaseTag: relPrereleaseTag,
			Snapshot:      relSnapshot,
			Tag:           relTag,
		})
		if relErr != nil {
			if errors.Is(relErr, application.ErrNoPendingChangesets) {
				fmt.Println("Nothing to release: no pending changesets")
				return nil
			}
			return relErr
		}

		printPlan(result.Plan)
		if result.DryRun {
			fmt.Println("\nDry run: nothing was written")
			return nil
		}
		fmt.Printf("\nArchived changesets: %v\n", result.Archived)
		if len(result.Tags) > 0 {
			fmt.Printf("Created tags: %v\n", result.Tags)
		}
		return nil
	})
}

func printPlan(plan *domain.VersionBumpPlan) {
	if len(plan.Cycles) > 0 {
		fmt.Println("Cycles detected:")
		for _, cycle := range plan.Cycles {
			fmt.Printf("  %v\n", cycle)
		}
	}
	for _, entry := range plan.Entries {
		marker := " "
		if entry.Changed() {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s -> %s (%s, %s)\n",
			marker, entry.Package, entry.Current, entry.Next, entry.Bump, entry.Reason)
	}
}
