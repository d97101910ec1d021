package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Inventory API
	BaseURL      string
	Token        string
	UserPassword string
	RequestDelay time.Duration
	Timeout      time.Duration
	PageSize     int

	// Feeds
	DevicesPath     string
	DirectoryPath   string
	AdminSchemaPath string
	AuxUserColumns  []string
	SerialSkipList  []string

	// Reference names
	DefaultCategory string
	ReadyStatus     string
	DeployedStatus  string
	Location        string
	Company         string

	// Resolution and reconciliation
	HostnamePrefix string
	RenamePolicy   string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
	LogDir    string
	LogKeep   int
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.assetsync.yaml or ./.assetsync.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// .env files must be loaded before viper reads the environment
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	bindings := map[string]string{
		"api.base_url":      constants.EnvBaseURL,
		"api.token":         constants.EnvToken,
		"api.user_password": constants.EnvUserPassword,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.NewConfigError("env", "failed to bind "+env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".assetsync")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config must exist; the search locations are optional.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "failed to read config", err)
		}
	}

	return &Config{
		ConfigFile: v.ConfigFileUsed(),
		Format:     v.GetString("output"),

		BaseURL:      v.GetString("api.base_url"),
		Token:        v.GetString("api.token"),
		UserPassword: v.GetString("api.user_password"),
		RequestDelay: v.GetDuration("api.request_delay"),
		Timeout:      v.GetDuration("api.timeout"),
		PageSize:     v.GetInt("api.page_size"),

		DevicesPath:     v.GetString("feeds.devices"),
		DirectoryPath:   v.GetString("feeds.directory"),
		AdminSchemaPath: v.GetString("feeds.admin_schema"),
		AuxUserColumns:  v.GetStringSlice("feeds.aux_user_columns"),
		SerialSkipList:  v.GetStringSlice("feeds.serial_skip_list"),

		DefaultCategory: v.GetString("defaults.category"),
		ReadyStatus:     v.GetString("defaults.ready_status"),
		DeployedStatus:  v.GetString("defaults.deployed_status"),
		Location:        v.GetString("defaults.location"),
		Company:         v.GetString("defaults.company"),

		HostnamePrefix: v.GetString("resolve.hostname_prefix"),
		RenamePolicy:   v.GetString("reconcile.rename_policy"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
		LogDir:    v.GetString("log.dir"),
		LogKeep:   v.GetInt("log.keep"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.request_delay", constants.DefaultRequestDelay)
	v.SetDefault("api.timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("api.page_size", constants.DefaultPageSize)
	v.SetDefault("feeds.aux_user_columns", constants.DefaultAuxUserColumns)
	v.SetDefault("feeds.serial_skip_list", constants.DefaultSerialSkipList)
	v.SetDefault("defaults.category", constants.DefaultCategoryName)
	v.SetDefault("defaults.ready_status", constants.DefaultReadyStatusName)
	v.SetDefault("defaults.deployed_status", constants.DefaultDeployedStatusName)
	v.SetDefault("defaults.location", constants.DefaultLocationName)
	v.SetDefault("defaults.company", constants.DefaultCompanyName)
	v.SetDefault("resolve.hostname_prefix", constants.DefaultHostnamePrefix)
	v.SetDefault("reconcile.rename_policy", "rename")
	v.SetDefault("log.dir", constants.DefaultLogDir)
	v.SetDefault("log.keep", constants.DefaultLogRetention)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env; neither overrides the real environment.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
