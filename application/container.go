package application

import (
	"sync"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.uber.org/dig"

	"github.com/monorel/monorel/config"
	"github.com/monorel/monorel/domain"
	"github.com/monorel/monorel/infrastructure/backup"
	"github.com/monorel/monorel/infrastructure/changeset"
	"github.com/monorel/monorel/infrastructure/gitops"
	"github.com/monorel/monorel/infrastructure/graph"
	"github.com/monorel/monorel/infrastructure/registry"
	"github.com/monorel/monorel/infrastructure/resolver"
	"github.com/monorel/monorel/infrastructure/workspace"
)

// RootDir is the workspace root the container operates on.
type RootDir string

// ContainerOptions seed the dependency container with the CLI inputs.
type ContainerOptions struct {
	Root       string
	ConfigPath string
	Overrides  config.Overrides
}

// RegisterProviders registers all layers with the DIG container, bottom-up:
// filesystem and configuration, infrastructure, then the services.
func RegisterProviders(container *dig.Container, opts ContainerOptions) error {
	providers := []interface{}{
		func() afero.Fs { return afero.NewOsFs() },
		func() RootDir { return RootDir(opts.Root) },
		func() (*config.Config, error) { return loadConfig(opts) },

		func(fs afero.Fs, root RootDir) (*workspace.Workspace, error) {
			return workspace.Discover(fs, string(root))
		},
		graph.Build,
		func(fs afero.Fs, root RootDir) *changeset.Store {
			return changeset.NewStore(fs, string(root))
		},
		resolver.New,
		func(root RootDir) GitOpener { return newGitOpener(string(root)) },
		func(cfg *config.Config) domain.Registry {
			return registry.NewNpmClient(
				cfg.Upgrade.Detection.RegistryURL,
				registry.WithTimeout(cfg.Upgrade.Detection.RequestTimeout()),
			)
		},
		func(fs afero.Fs, root RootDir, cfg *config.Config) *backup.Manager {
			return backup.New(fs, string(root), cfg.Upgrade.Backup.BackupDir)
		},

		NewChangesetService,
		NewReleaseService,
		NewAuditService,
		NewUpgradeService,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig layers the file configuration under the CLI overrides. A
// missing config file is not an error; defaults apply.
func loadConfig(opts ContainerOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		found, err := config.FindConfigFile(opts.Root)
		if err != nil {
			logger.Debugf("No config file found, using defaults")
			return config.Merge(config.Default(), opts.Overrides), nil
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded configuration from %q", path)
	return config.Merge(cfg, opts.Overrides), nil
}

// newGitOpener opens the repository once, on first use.
func newGitOpener(root string) GitOpener {
	var once sync.Once
	var repo domain.Git
	var err error
	return func() (domain.Git, error) {
		once.Do(func() {
			repo, err = gitops.Open(root)
		})
		return repo, err
	}
}
