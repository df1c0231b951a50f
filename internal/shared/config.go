package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Vector      VectorConfig      `toml:"vector"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
	OpenAI  OpenAIConfig  `toml:"openai"`
}

// SpotifyConfig contains Spotify API credentials and, once the OAuth flow
// has run, the persisted token.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenExpiry  string `toml:"token_expiry"`
}

// Update stores the fields of an exchanged OAuth token.
func (s *SpotifyConfig) Update(token *oauth2.Token) {
	s.AccessToken = token.AccessToken
	s.RefreshToken = token.RefreshToken
	if !token.Expiry.IsZero() {
		s.TokenExpiry = token.Expiry.Format(time.RFC3339)
	}
}

// Map renders the config as the credentials map the Spotify service expects.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
	}
}

// Token reconstructs the persisted [oauth2.Token], or nil if none is stored.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	token := &oauth2.Token{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
	if s.TokenExpiry != "" {
		if expiry, err := time.Parse(time.RFC3339, s.TokenExpiry); err == nil {
			token.Expiry = expiry
		}
	}
	return token
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	APIKey      string `toml:"api_key"`
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// OpenAIConfig contains the embedding provider credentials.
type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// VectorConfig contains Qdrant connection and search settings.
type VectorConfig struct {
	Host       string  `toml:"host"`
	Port       int     `toml:"port"`
	APIKey     string  `toml:"api_key"`
	Collection string  `toml:"collection"`
	TopK       int     `toml:"top_k"`
	MinScore   float64 `toml:"min_score"`
}

// EmbeddingConfig contains embedding model and cache settings.
type EmbeddingConfig struct {
	Model           string `toml:"model"`
	Dimension       int    `toml:"dimension"`
	BatchSize       int    `toml:"batch_size"`
	CacheSize       int    `toml:"cache_size"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// CacheTTL returns the embedding cache TTL as a [time.Duration].
func (e EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSeconds) * time.Second
}

// ResolverConfig contains match resolver tunables.
type ResolverConfig struct {
	StageTimeoutSeconds int     `toml:"stage_timeout_seconds"`
	LexicalLimit        int     `toml:"lexical_limit"`
	MinRatio            float64 `toml:"min_ratio"`
	Workers             int     `toml:"workers"`
	RateLimit           float64 `toml:"rate_limit"`
}

// StageTimeout returns the per-stage timeout as a [time.Duration].
func (r ResolverConfig) StageTimeout() time.Duration {
	return time.Duration(r.StageTimeoutSeconds) * time.Second
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the config back to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the pipeline cannot start without.
func (c *Config) Validate() error {
	if c.Vector.Collection == "" {
		return fmt.Errorf("%w: vector collection name is required", ErrInvalidConfig)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", ErrInvalidConfig)
	}
	if c.Vector.MinScore < 0 || c.Vector.MinScore > 1 {
		return fmt.Errorf("%w: vector min_score must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch_size must be positive", ErrInvalidConfig)
	}
	return nil
}
