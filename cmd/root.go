// Package cmd wires the cobra command tree to the application services.
package cmd

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/monorel/monorel/application"
	"github.com/monorel/monorel/config"
)

var (
	// Global flags
	configPath string
	rootDir    string
	dryRun     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "monorel",
	Short: "Release and dependency toolkit for JavaScript monorepos",
	Long: `A CLI tool that manages versioning across npm, Yarn, pnpm and Bun
workspaces using per-branch changesets.

It helps keep a monorepo releasable by:
- Tracking version-bump intent per feature branch
- Resolving coordinated version bumps across internal dependencies
- Auditing the workspace for cycles, conflicts and inconsistent pins
- Detecting and applying upgrades of external dependencies with backups`,
	PersistentPreRun: func(*cobra.Command, []string) {
		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Workspace root (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// buildContainer assembles the dependency container for one invocation.
func buildContainer(overrides config.Overrides) (*dig.Container, error) {
	root := rootDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = cwd
	}

	container := dig.New()
	err := application.RegisterProviders(container, application.ContainerOptions{
		Root:       root,
		ConfigPath: configPath,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, err
	}
	return container, nil
}
