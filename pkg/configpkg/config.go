// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver             string `mapstructure:"DB_DRIVER"`
	DBSource             string `mapstructure:"DB_SOURCE"`
	ServerAddress        string `mapstructure:"SERVER_ADDRESS"`
	Environment          string `mapstructure:"GO_ENV"`
	ReversalWindowDays   int    `mapstructure:"REVERSAL_WINDOW_DAYS"`
	MaxTransactionAmount int64  `mapstructure:"MAX_TRANSACTION_AMOUNT"`
	DailyTransferLimit   int64  `mapstructure:"DAILY_TRANSFER_LIMIT"`
	DailyWithdrawalLimit int64  `mapstructure:"DAILY_WITHDRAWAL_LIMIT"`
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("REVERSAL_WINDOW_DAYS", 30)
	viper.SetDefault("MAX_TRANSACTION_AMOUNT", 100_000_00)
	viper.SetDefault("DAILY_TRANSFER_LIMIT", 50_000_00)
	viper.SetDefault("DAILY_WITHDRAWAL_LIMIT", 10_000_00)

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = viper.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
