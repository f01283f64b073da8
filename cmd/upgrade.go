package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
)

var (
	upTypes        []string
	upPackages     []string
	upDependencies []string
	upPrereleases  bool
	upConcurrency  int
	upRegistryURL  string
	upDetectOnly   bool
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Detect and apply external dependency upgrades",
	Long: `Query the registry for newer versions of every external dependency in
the workspace and rewrite the selected ones, preserving each requirement's
operator. A backup of the touched manifests is taken before writing unless
backups are disabled in the configuration.`,
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().StringSliceVar(&upTypes, "type", nil, "Upgrade types to apply: major, minor, patch (repeatable)")
	upgradeCmd.Flags().StringSliceVar(&upPackages, "package", nil, "Restrict to workspace package (repeatable)")
	upgradeCmd.Flags().StringSliceVar(&upDependencies, "dependency", nil, "Restrict to dependency (repeatable)")
	upgradeCmd.Flags().BoolVar(&upPrereleases, "prereleases", false, "Consider prerelease versions")
	upgradeCmd.Flags().IntVar(&upConcurrency, "concurrency", 0, "Registry lookup concurrency")
	upgradeCmd.Flags().StringVar(&upRegistryURL, "registry", "", "Registry base URL")
	upgradeCmd.Flags().BoolVar(&upDetectOnly, "detect-only", false, "Only list available upgrades")

	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, _ []string) error {
	filter, err := parseFilter()
	if err != nil {
		return err
	}

	container, err := buildContainer(config.Overrides{
		RegistryURL:        upRegistryURL,
		Concurrency:        upConcurrency,
		IncludePrereleases: upPrereleases,
	})
	if err != nil {
		return err
	}
	return container.Invoke(func(svc *application.UpgradeService) error {
		if upDetectOnly {
			detected, detectErr := svc.Detect(cmd.Context())
			if detectErr != nil {
				return detectErr
			}
			printDetection(detected)
			return nil
		}

		summary, applyErr := svc.Apply(cmd.Context(), filter, dryRun)
		if applyErr != nil {
			return applyErr
		}
		printSummary(summary)
		return nil
	})
}

func parseFilter() (domain.UpgradeFilter, error) {
	filter := domain.UpgradeFilter{
		Packages:     upPackages,
		Dependencies: upDependencies,
	}
	for _, t := range upTypes {
		switch t {
		case "major":
			filter.Types = append(filter.Types, domain.UpgradeMajor)
		case "minor":
			filter.Types = append(filter.Types, domain.UpgradeMinor)
		case "patch":
			filter.Types = append(filter.Types, domain.UpgradePatch)
		default:
			return filter, fmt.Errorf("unknown upgrade type %q", t)
		}
	}
	return filter, nil
}

func printDetection(detected *domain.DetectionResult) {
	if len(detected.Upgrades) == 0 {
		fmt.Println("Everything is up to date")
	}
	for _, u := range detected.Upgrades {
		line := fmt.Sprintf("%-40s %-30s %s -> %s (%s)",
			u.Package, u.Dependency, u.CurrentVer, u.LatestVer, u.Type)
		if u.Deprecated != "" {
			line += "  [deprecated]"
		}
		fmt.Println(line)
	}
	for _, f := range detected.Failures {
		fmt.Printf("lookup failed: %s/%s: %s\n", f.Package, f.Dependency, f.Err)
	}
}

func printSummary(summary *domain.UpgradeSummary) {
	if summary.DryRun {
		fmt.Println("Dry run: nothing was written")
	}
	for _, u := range summary.Applied {
		fmt.Printf("%-40s %-30s %s -> %s\n", u.Package, u.Dependency, u.CurrentVer, u.LatestVer)
	}
	for _, f := range summary.Failures {
		fmt.Printf("failed: %s: %s\n", f.ManifestPath, f.Err)
	}
	fmt.Printf("\n%d applied (%d major, %d minor, %d patch), %d failed\n",
		len(summary.Applied), summary.MajorUpgrades, summary.MinorUpgrades,
		summary.PatchUpgrades, len(summary.Failures))
	if summary.BackupID != "" {
		fmt.Printf("Backup: %s\n", summary.BackupID)
	}
}
