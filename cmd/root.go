package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/sw33tLie/phishguard/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `       _     _     _                             _
 _ __ | |__ (_)___| |__   __ _ _   _  __ _ _ __ __| |
| '_ \| '_ \| / __| '_ \ / _' | | | |/ _' | '__/ _' |
| |_) | | | | \__ \ | | | (_| | |_| | (_| | | | (_| |
| .__/|_| |_|_|___/_| |_|\__, |\__,_|\__,_|_|  \__,_|
|_|                      |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phishguard",
	Short: "Phishing risk scoring for URLs.",
	Long: LOGO + `phishguard scores URLs for phishing risk with a local rule-based heuristic or a
remote classifier, and remembers what it has already classified.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.phishguard.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for the remote classifier (Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default is $HOME/.config/phishguard/phishguard.sqlite)")
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
}

func setDefaults() {
	viper.SetDefault("db.path", "")
	viper.SetDefault("seed.file", "")
	viper.SetDefault("remote.enabled", false)
	viper.SetDefault("remote.endpoint", "")
	viper.SetDefault("remote.api_key", "")
	viper.SetDefault("remote.timeout", "5s")
	viper.SetDefault("thresholds.block", 0.8)
	viper.SetDefault("thresholds.remote_block", 0.7)
	viper.SetDefault("thresholds.link", 0.6)
	viper.SetDefault("thresholds.legitimate", 0.2)
	viper.SetDefault("scoring.mode", "full")
	viper.SetDefault("scoring.protected_domains", []string{})
	viper.SetDefault("server.listen", "127.0.0.1:8080")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
	viper.SetDefault("log.file", "")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Secrets such as PHISHGUARD_REMOTE_API_KEY may live in a .env file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %s\n", err)
	}

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".phishguard")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PHISHGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".phishguard.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating config file: %s\n", err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := utils.SetLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	utils.SetLogFile(viper.GetString("log.file"), 10, 3)
}
