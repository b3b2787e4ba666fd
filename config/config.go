package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	HashAlgorithmPBKDF2   = "pbkdf2"
	HashAlgorithmBcrypt   = "bcrypt"
	HashAlgorithmArgon2id = "argon2id"

	minPBKDF2Iterations = 10000
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
		// CredentialRateLimit throttles register and login per client IP.
		CredentialRateLimit RateLimitConfig `json:"credentialRateLimit" yaml:"credentialRateLimit"`
	} `json:"http" yaml:"http"`

	Storage StorageConfig `json:"storage" yaml:"storage"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Token TokenConfig `json:"token" yaml:"token"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	PasswordPolicy PasswordPolicyConfig `json:"passwordPolicy" yaml:"passwordPolicy"`

	Tasks TasksConfig `json:"tasks" yaml:"tasks"`
}

// RateLimitConfig is a token bucket per client. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64       `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int           `json:"burst" yaml:"burst"`
	ExpiresIn         time.Duration `json:"expiresIn" yaml:"expiresIn"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `json:"driver" yaml:"driver"`
	// AutoMigrate runs the embedded schema migrations on start (postgres only).
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`
}

// TokenConfig holds the session token signing settings.
type TokenConfig struct {
	Secret   string        `json:"secret" yaml:"secret"`
	Issuer   string        `json:"issuer" yaml:"issuer"`
	Audience string        `json:"audience" yaml:"audience"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

// AuthConfig defines password hashing configuration
type AuthConfig struct {
	HashAlgorithm       string       `json:"hashAlgorithm" yaml:"hashAlgorithm"`
	PBKDF2Iterations    int          `json:"pbkdf2Iterations" yaml:"pbkdf2Iterations"`
	BcryptCost          int          `json:"bcryptCost" yaml:"bcryptCost"`
	Argon2              Argon2Config `json:"argon2" yaml:"argon2"`
	MaxConcurrentHashes int          `json:"maxConcurrentHashes" yaml:"maxConcurrentHashes"`
}

// Argon2Config holds argon2id cost parameters. Memory is in KiB.
type Argon2Config struct {
	Time    uint32 `json:"time" yaml:"time"`
	Memory  uint32 `json:"memory" yaml:"memory"`
	Threads uint8  `json:"threads" yaml:"threads"`
}

// PasswordPolicyConfig defines the minimum character counts a new password needs
type PasswordPolicyConfig struct {
	MinLength    int `json:"minLength" yaml:"minLength"`
	MinUppercase int `json:"minUppercase" yaml:"minUppercase"`
	MinLowercase int `json:"minLowercase" yaml:"minLowercase"`
	MinDigits    int `json:"minDigits" yaml:"minDigits"`
	MinSpecial   int `json:"minSpecial" yaml:"minSpecial"`
}

// TasksConfig bounds task listing pages.
type TasksConfig struct {
	DefaultPageSize int `json:"defaultPageSize" yaml:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize" yaml:"maxPageSize"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}
	if c.Token.TTL == 0 {
		c.Token.TTL = 5 * time.Minute
	}
	if c.Auth.HashAlgorithm == "" {
		c.Auth.HashAlgorithm = HashAlgorithmPBKDF2
	}
	if c.Auth.PBKDF2Iterations == 0 {
		c.Auth.PBKDF2Iterations = minPBKDF2Iterations
	}
	if c.Auth.MaxConcurrentHashes == 0 {
		c.Auth.MaxConcurrentHashes = 4
	}
	if c.PasswordPolicy == (PasswordPolicyConfig{}) {
		c.PasswordPolicy = PasswordPolicyConfig{MinLength: 8, MinUppercase: 1, MinLowercase: 1, MinDigits: 1, MinSpecial: 1}
	}
	if c.Tasks.DefaultPageSize == 0 {
		c.Tasks.DefaultPageSize = 10
	}
	if c.Tasks.MaxPageSize == 0 {
		c.Tasks.MaxPageSize = 100
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Postgres == nil {
			return errors.New("postgres config is required for the postgres storage driver")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Token.Secret) == "" {
		return errors.New("token.secret must be provided")
	}
	if c.Token.TTL <= 0 {
		return errors.Errorf("token.ttl must be positive, got %s", c.Token.TTL)
	}

	switch c.Auth.HashAlgorithm {
	case HashAlgorithmPBKDF2, HashAlgorithmBcrypt, HashAlgorithmArgon2id:
	default:
		return errors.Errorf("unknown auth.hashAlgorithm %q", c.Auth.HashAlgorithm)
	}
	if c.Auth.PBKDF2Iterations < minPBKDF2Iterations {
		return errors.Errorf("auth.pbkdf2Iterations must be at least %d", minPBKDF2Iterations)
	}
	if c.Auth.MaxConcurrentHashes < 1 {
		return errors.New("auth.maxConcurrentHashes must be at least 1")
	}

	p := c.PasswordPolicy
	if p.MinLength < 0 || p.MinUppercase < 0 || p.MinLowercase < 0 || p.MinDigits < 0 || p.MinSpecial < 0 {
		return errors.New("passwordPolicy thresholds must not be negative")
	}

	if rl := c.HTTP.CredentialRateLimit; rl.RequestsPerSecond < 0 || rl.Burst < 0 {
		return errors.New("http.credentialRateLimit must not be negative")
	}

	if c.Tasks.DefaultPageSize < 1 || c.Tasks.MaxPageSize < c.Tasks.DefaultPageSize {
		return errors.Errorf("tasks page sizes are inconsistent: default %d, max %d", c.Tasks.DefaultPageSize, c.Tasks.MaxPageSize)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
