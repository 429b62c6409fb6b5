// internal/config/config.go
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// RepoDir is the repository marker directory at the working-tree root.
const RepoDir = ".slate"

// DefaultBranch is the branch created by init.
const DefaultBranch = "main"

// Layout resolves the on-disk locations of repository state.
type Layout struct {
	Root string // working-tree root
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) RepoRoot() string   { return filepath.Join(l.Root, RepoDir) }
func (l Layout) CommitsDir() string { return filepath.Join(l.RepoRoot(), "commits") }
func (l Layout) RefsDir() string    { return filepath.Join(l.RepoRoot(), "refs") }
func (l Layout) LogsDir() string    { return filepath.Join(l.RepoRoot(), "logs") }
func (l Layout) HeadFile() string   { return filepath.Join(l.RepoRoot(), "HEAD") }
func (l Layout) IndexFile() string  { return filepath.Join(l.RepoRoot(), "index.json") }
func (l Layout) ConfigFile() string { return filepath.Join(l.RepoRoot(), "config.json") }

func (l Layout) CommitDir(commitID string) string {
	return filepath.Join(l.CommitsDir(), commitID)
}

func (l Layout) RefFile(branch string) string {
	return filepath.Join(l.RefsDir(), branch)
}

func (l Layout) LogFile(branch string) string {
	return filepath.Join(l.LogsDir(), branch+".json")
}

// Config holds optional repository settings.
type Config struct {
	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// Load reads config.json; a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{LogLevel: "warn"}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}
