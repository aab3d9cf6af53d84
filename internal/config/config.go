package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds application configuration.
type Config struct {
	// VaultRoot is the directory searched when a --vault value is not
	// itself an existing directory. Defaults to OBSPACK_VAULT_ROOT or the
	// platform Obsidian location under the user profile.
	VaultRoot string `json:"vault_root,omitempty"`

	// WordLimit is the advisory ingestion limit the estimate is reported
	// against.
	WordLimit int `json:"word_limit,omitempty"`

	// TOCEntryOverhead is the fixed per-note word cost added to the
	// estimate to account for markers and TOC bullet formatting. A
	// pointer so an explicit 0 in config.json is distinct from unset.
	TOCEntryOverhead *int `json:"toc_entry_overhead,omitempty"`

	// Include is a list of glob patterns over vault-relative paths;
	// when non-empty, only matching notes are packed.
	Include []string `json:"include,omitempty"`

	// Exclude is a list of glob patterns over vault-relative paths;
	// matching notes are skipped. Exclude wins over include.
	Exclude []string `json:"exclude,omitempty"`

	// TokenEncoding names the tiktoken encoding used for the model-token
	// estimate. When the encoding cannot be loaded, a chars/4 heuristic
	// is used instead.
	TokenEncoding string `json:"token_encoding,omitempty"`

	// DisableHistory turns off run-history recording.
	DisableHistory bool `json:"disable_history,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// TOCOverhead returns the per-note estimate overhead, or 0 when unset.
func (c *Config) TOCOverhead() int {
	if c.TOCEntryOverhead == nil {
		return 0
	}
	return *c.TOCEntryOverhead
}

// IntPtr returns a pointer to v, for building Config values.
func IntPtr(v int) *int {
	return &v
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		VaultRoot:        defaultVaultRoot(),
		WordLimit:        500_000,
		TOCEntryOverhead: IntPtr(7),
		TokenEncoding:    "cl100k_base",
	}
}

// defaultVaultRoot resolves the default vault search root:
// OBSPACK_VAULT_ROOT if set, else the platform Obsidian location.
func defaultVaultRoot() string {
	if root := os.Getenv("OBSPACK_VAULT_ROOT"); root != "" {
		return root
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(homeDir, "Library", "Mobile Documents", "iCloud~md~obsidian", "Documents")
	}
	return filepath.Join(homeDir, "Documents", "Obsidian")
}

// Validate validates the configuration after merging.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WordLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.TOCEntryOverhead, validation.Min(0)),
		validation.Field(&c.TokenEncoding, validation.Required),
	)
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.obspack.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// LoadWithRepo loads configuration from both global (~/.obspack) and repo
// (.obspack) directories. Repo config is found by walking upward from
// startDir to find the nearest .obspack/config.json. Repo config takes
// precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	merged := Merge(Merge(DefaultConfig(), global), repo)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .obspack/config.json. Returns the path if found, or empty string.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".obspack", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and
// deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.VaultRoot = overlay.VaultRoot
	if result.VaultRoot == "" {
		result.VaultRoot = base.VaultRoot
	}

	result.WordLimit = overlay.WordLimit
	if result.WordLimit == 0 {
		result.WordLimit = base.WordLimit
	}

	result.TOCEntryOverhead = overlay.TOCEntryOverhead
	if result.TOCEntryOverhead == nil {
		result.TOCEntryOverhead = base.TOCEntryOverhead
	}

	result.TokenEncoding = overlay.TokenEncoding
	if result.TokenEncoding == "" {
		result.TokenEncoding = base.TokenEncoding
	}

	// Booleans: overlay wins if true, else base
	result.DisableHistory = base.DisableHistory || overlay.DisableHistory

	// Arrays: merge and deduplicate
	result.Include = mergeStringSlice(base.Include, overlay.Include)
	result.Exclude = mergeStringSlice(base.Exclude, overlay.Exclude)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
