package util

import (
	"github.com/ValentinKolb/bKV/lib/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags selecting and configuring the store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	defaults := common.DefaultStoreConfig()

	key := "engine"
	cmd.PersistentFlags().String(key, defaults.Engine, WrapString("The storage engine behind the boundary (bolt, mem, sqlite)"))

	key = "path"
	cmd.PersistentFlags().String(key, defaults.Path, WrapString("The path of the store. For the bolt and sqlite engines this is a directory that is created if it does not exist"))

	key = "read-buffer"
	cmd.PersistentFlags().Int(key, defaults.ReadBufferSize, WrapString("The initial size of the read buffer (in bytes), it grows when a value does not fit"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("The log level (debug, info, warn, error)"))

	key = "stats"
	cmd.PersistentFlags().Bool(key, false, WrapString("Print the storage metrics in Prometheus format after the command finished"))
}

// InitStoreConfig initializes configuration from environment variables
func InitStoreConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("bkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() common.StoreConfig {
	return common.StoreConfig{
		Engine:         viper.GetString("engine"),
		Path:           viper.GetString("path"),
		ReadBufferSize: viper.GetInt("read-buffer"),
		LogLevel:       viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
