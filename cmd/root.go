package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-scout/internal/server"
	"github.com/spigell/talent-scout/internal/sourcing"
)

const (
	app = "talent-scout"
)

type Config struct {
	GitHub      *GitHubConfig   `mapstructure:"github"`
	AI          *AIConfig       `mapstructure:"ai"`
	Sourcing    *SourcingConfig `mapstructure:"sourcing"`
	Server      *server.Config  `mapstructure:"server"`
	ExcludeFile string          `mapstructure:"exclude-file"`
}

type GitHubConfig struct {
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"token-file"`
	APIURL    string        `mapstructure:"api-url"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AIConfig struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	BaseURL      string `mapstructure:"base-url"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type SourcingConfig struct {
	DailyTokenLimit int `mapstructure:"daily-token-limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-scout finds GitHub developers for a job description and lets you review them one by one",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"github.token":      "GITHUB_TOKEN",
		"github.token-file": "GITHUB_TOKEN_FILE",
		"ai.api-key-file":   "AI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.max-retries", 3)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("github.timeout", 15*time.Second)
	viper.SetDefault("sourcing.daily-token-limit", sourcing.DefaultDailyTokenLimit)
	viper.SetDefault("server.addr", server.DefaultAddr)
	viper.SetDefault("server.rate-limit", server.DefaultRateLimit)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-scout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The default config file is optional: everything can come from env.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		GitHub:   &GitHubConfig{},
		AI:       &AIConfig{},
		Sourcing: &SourcingConfig{},
		Server:   &server.Config{},
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
