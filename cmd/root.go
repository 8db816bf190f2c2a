package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"topic-crawler/internal/config"
	"topic-crawler/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "topic-crawler",
	Short: "Hot topic crawler",
	Long:  "Fetches trending topics from bilibili and the newsnow aggregator and reports on them.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

// envKeys are overridable as TOPIC_<KEY> with dots replaced by underscores.
var envKeys = []string{
	"app.log_level",
	"redis.enabled", "redis.addr", "redis.username", "redis.password", "redis.db",
	"sources.bilibili.cookie", "sources.bilibili.proxy", "sources.bilibili.rate_limit_rps",
	"sources.newsnow.base_url", "sources.newsnow.proxy", "sources.newsnow.retries",
	"sources.newsnow.max_detail_fetches", "sources.newsnow.interval_ms",
	"output.dir", "output.file",
	"server.addr",
	"collector.interval",
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/topic-crawler")
		v.AddConfigPath("configs")
	}

	v.SetEnvPrefix("TOPIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	_ = v.BindEnv("openai.api_key", "TOPIC_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "TOPIC_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.model", "TOPIC_OPENAI_MODEL", "MODEL_NAME")
	_ = v.BindEnv("output.data_root", "TOPIC_OUTPUT_DATA_ROOT", "DATA_ROOT")

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()
	logging.Setup(appCfg.App.LogLevel)
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
