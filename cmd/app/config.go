package main

import (
	"fmt"
	"strings"
	"time"

	"rewards_academy/internal/cache"
	"rewards_academy/internal/notifier"
	"rewards_academy/internal/repository"
	"rewards_academy/internal/service"
	"rewards_academy/internal/wallet"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`
	Notifier     NotifierConfig     `yaml:"notifier"`
	Redis        RedisConfig        `yaml:"redis"`
	Payout       PayoutConfig       `yaml:"payout"`
	Rewards      RewardsConfig      `yaml:"rewards"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	DebugMode        bool   `yaml:"debugMode"`
}

type NotifierConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"botToken"`
	AdminChatID int64  `yaml:"adminChatId"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PayoutConfig struct {
	WalletServiceURL string        `yaml:"walletServiceUrl"`
	RequestTimeout   time.Duration `yaml:"requestTimeout"`
	RetryInterval    time.Duration `yaml:"retryInterval"`
}

// RewardsConfig mirrors service.RewardsConfig with yaml-friendly types.
type RewardsConfig struct {
	ReferralPoints      int    `yaml:"referralPoints"`
	ReferralTokens      string `yaml:"referralTokens"`
	ReferralCoins       string `yaml:"referralCoins"`
	DailyBaseReward     string `yaml:"dailyBaseReward"`
	DailyStreakUnit     string `yaml:"dailyStreakUnit"`
	MaxStreakBonus      string `yaml:"maxStreakBonus"`
	ActivityUnitMinutes int    `yaml:"activityUnitMinutes"`
	ActivityCoinRate    string `yaml:"activityCoinRate"`
	TeachingPoints      int    `yaml:"teachingPoints"`
	TeachingCoins       string `yaml:"teachingCoins"`
	PromotionUnit       string `yaml:"promotionUnit"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) ServiceRewards() (service.RewardsConfig, error) {
	out := service.RewardsConfig{
		ReferralPoints:      c.Rewards.ReferralPoints,
		ActivityUnitMinutes: c.Rewards.ActivityUnitMinutes,
		TeachingPoints:      c.Rewards.TeachingPoints,
	}

	fields := []struct {
		name  string
		raw   string
		value *decimal.Decimal
	}{
		{"referralTokens", c.Rewards.ReferralTokens, &out.ReferralTokens},
		{"referralCoins", c.Rewards.ReferralCoins, &out.ReferralCoins},
		{"dailyBaseReward", c.Rewards.DailyBaseReward, &out.DailyBaseReward},
		{"dailyStreakUnit", c.Rewards.DailyStreakUnit, &out.DailyStreakUnit},
		{"maxStreakBonus", c.Rewards.MaxStreakBonus, &out.MaxStreakBonus},
		{"activityCoinRate", c.Rewards.ActivityCoinRate, &out.ActivityCoinRate},
		{"teachingCoins", c.Rewards.TeachingCoins, &out.TeachingCoins},
		{"promotionUnit", c.Rewards.PromotionUnit, &out.PromotionUnit},
	}

	for _, f := range fields {
		value, err := decimal.NewFromString(f.raw)
		if err != nil {
			return service.RewardsConfig{}, fmt.Errorf("invalid rewards.%s %q: %w", f.name, f.raw, err)
		}
		*f.value = value
	}

	return out, nil
}

func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

func (c *Config) NotifierConfig() notifier.Config {
	return notifier.Config{
		BotToken:    c.Notifier.BotToken,
		AdminChatID: c.Notifier.AdminChatID,
	}
}

func (c *Config) WalletConfig() wallet.Config {
	return wallet.Config{
		BaseURL: c.Payout.WalletServiceURL,
	}
}
