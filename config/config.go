package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy selects how a merged changeset maps to the set of packages that
// bump.
type Strategy string

const (
	StrategyIndependent Strategy = "independent"
	StrategyUnified     Strategy = "unified"
	StrategyMixed       Strategy = "mixed"
)

// Config is the top-level configuration for monorel.
type Config struct {
	Versioning   VersioningConfig   `yaml:"versioning"`
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Audit        AuditConfig        `yaml:"audit"`
	Upgrade      UpgradeConfig      `yaml:"upgrade"`
}

// VersioningConfig controls the version resolver.
type VersioningConfig struct {
	Strategy Strategy `yaml:"strategy"`
	// Groups maps group name -> glob patterns over package names; only used
	// by the mixed strategy.
	Groups map[string][]string `yaml:"groups"`
	// SyncOnMajor forces a unified pass when any merged bump is major.
	SyncOnMajor bool `yaml:"sync_on_major"`
	// SnapshotTemplate names snapshot prereleases. Placeholders: {sha},
	// {timestamp}, {branch}.
	SnapshotTemplate string `yaml:"snapshot_template"`
}

// DependenciesConfig controls propagation across the internal graph.
type DependenciesConfig struct {
	PropagateUpdates         bool   `yaml:"propagate_updates"`
	MaxPropagationDepth      int    `yaml:"max_propagation_depth"`
	PropagateDevDependencies bool   `yaml:"propagate_dev_dependencies"`
	IncludeOptional          bool   `yaml:"include_optional"`
	IncludePeer              bool   `yaml:"include_peer"`
	DependencyUpdateBump     string `yaml:"dependency_update_bump"`
	DetectCircular           bool   `yaml:"detect_circular"`
	FailOnCircular           bool   `yaml:"fail_on_circular"`
}

// AuditConfig enables audit sections and their policies.
type AuditConfig struct {
	Sections           map[string]bool          `yaml:"sections"`
	DependenciesChecks AuditDependenciesConfig  `yaml:"dependencies"`
	VersionConsistency VersionConsistencyConfig `yaml:"version_consistency"`
}

// AuditDependenciesConfig toggles the dependency audit checks.
type AuditDependenciesConfig struct {
	CheckCircular         bool `yaml:"check_circular"`
	CheckVersionConflicts bool `yaml:"check_version_conflicts"`
}

// VersionConsistencyConfig elevates or suppresses inconsistency findings.
type VersionConsistencyConfig struct {
	FailOnInconsistency bool `yaml:"fail_on_inconsistency"`
	WarnOnInconsistency bool `yaml:"warn_on_inconsistency"`
}

// UpgradeConfig controls the upgrade engine.
type UpgradeConfig struct {
	Backup    BackupConfig    `yaml:"backup"`
	Detection DetectionConfig `yaml:"detection"`
}

// BackupConfig controls snapshots taken before batch manifest mutation.
type BackupConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BackupDir        string `yaml:"backup_dir"`
	KeepAfterSuccess bool   `yaml:"keep_after_success"`
	MaxBackups       int    `yaml:"max_backups"`
}

// DetectionConfig bounds registry fan-out.
type DetectionConfig struct {
	Concurrency        int    `yaml:"concurrency"`
	IncludePrereleases bool   `yaml:"include_prereleases"`
	IncludeOptional    bool   `yaml:"include_optional"`
	RequestTimeoutSecs int    `yaml:"request_timeout_seconds"`
	OverallTimeoutSecs int    `yaml:"overall_timeout_seconds"`
	RegistryURL        string `yaml:"registry_url"`
}

// RequestTimeout is the per-lookup registry timeout.
func (c DetectionConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// OverallTimeout bounds a whole detection pass.
func (c DetectionConfig) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutSecs) * time.Second
}

// Default returns the explicit defaults every layer merges over.
func Default() *Config {
	return &Config{
		Versioning: VersioningConfig{
			Strategy:         StrategyIndependent,
			SnapshotTemplate: "snapshot-{branch}-{sha}",
		},
		Dependencies: DependenciesConfig{
			PropagateUpdates:     true,
			MaxPropagationDepth:  10,
			IncludePeer:          true,
			DependencyUpdateBump: "patch",
			DetectCircular:       true,
			FailOnCircular:       true,
		},
		Audit: AuditConfig{
			Sections: map[string]bool{
				"dependencies":        true,
				"version_consistency": true,
			},
			DependenciesChecks: AuditDependenciesConfig{
				CheckCircular:         true,
				CheckVersionConflicts: true,
			},
			VersionConsistency: VersionConsistencyConfig{
				WarnOnInconsistency: true,
			},
		},
		Upgrade: UpgradeConfig{
			Backup: BackupConfig{
				Enabled:    true,
				BackupDir:  ".monorel-backups",
				MaxBackups: 10,
			},
			Detection: DetectionConfig{
				Concurrency:        10,
				RequestTimeoutSecs: 30,
				OverallTimeoutSecs: 300,
				RegistryURL:        "https://registry.npmjs.org",
			},
		},
	}
}

// Load reads a configuration file and layers it over the defaults. Keys
// absent from the file keep their default, including booleans whose default
// is true.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := Default()
	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, unmarshalErr)
	}

	if validateErr := validate(cfg); validateErr != nil {
		return nil, validateErr
	}
	return cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
func FindConfigFile(root string) (string, error) {
	patterns := []string{
		".monorel.yaml",
		".monorel.yml",
		"monorel.yaml",
		"monorel.yml",
	}
	locations := []string{root, filepath.Join(root, ".config")}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}
	return "", errors.New("config file not found in default locations")
}

// Overrides are the command-line knobs that layer over the loaded file.
type Overrides struct {
	Strategy           Strategy
	RegistryURL        string
	Concurrency        int
	IncludePrereleases bool
	FailOnCircular     *bool
}

// Merge applies command-line overrides over a loaded configuration as a
// pure function; cfg is not mutated.
func Merge(cfg *Config, o Overrides) *Config {
	out := *cfg

	if o.Strategy != "" {
		out.Versioning.Strategy = o.Strategy
	}
	if o.RegistryURL != "" {
		out.Upgrade.Detection.RegistryURL = o.RegistryURL
	}
	if o.Concurrency > 0 {
		out.Upgrade.Detection.Concurrency = o.Concurrency
	}
	if o.IncludePrereleases {
		out.Upgrade.Detection.IncludePrereleases = true
	}
	if o.FailOnCircular != nil {
		out.Dependencies.FailOnCircular = *o.FailOnCircular
	}
	return &out
}

// validate checks enumerated values.
func validate(cfg *Config) error {
	switch cfg.Versioning.Strategy {
	case StrategyIndependent, StrategyUnified, StrategyMixed:
	default:
		return fmt.Errorf(
			"versioning.strategy must be independent, unified or mixed (got %q)",
			cfg.Versioning.Strategy,
		)
	}

	switch cfg.Dependencies.DependencyUpdateBump {
	case "major", "minor", "patch":
	default:
		return fmt.Errorf(
			"dependencies.dependency_update_bump must be major, minor or patch (got %q)",
			cfg.Dependencies.DependencyUpdateBump,
		)
	}

	if cfg.Versioning.Strategy == StrategyMixed && len(cfg.Versioning.Groups) == 0 {
		return errors.New("versioning.groups must have at least one group for the mixed strategy")
	}
	return nil
}
