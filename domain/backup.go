package domain

import "time"

// Backup describes one on-disk snapshot of manifest files, captured before a
// batch mutation. The success flag is set only after the triggering
// operation completes; failed operations leave it false so the snapshot
// survives cleanup.
type Backup struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Operation string    `yaml:"operation"`
	Files     []string  `yaml:"files"`
	Succeeded bool      `yaml:"succeeded"`
}
