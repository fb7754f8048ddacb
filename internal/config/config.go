package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
)

// SSMParameterGetter Parameter Storeからの取得に使用する操作
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config アプリケーション設定構造体
type Config struct {
	// Discord設定
	DiscordBotToken string
	DiscordAppID    string
	// DiscordGuildID コマンドを特定のサーバーにのみ登録する場合に指定
	DiscordGuildID string

	// 定期インポート設定
	GoogleCredentials string
	ReportWebhookURL  string
	ImportJobsFile    string

	// その他設定
	LogLevel string
	Timezone string

	// AWS関連（本番環境でのみ使用）
	ssmClient SSMParameterGetter
}

// Load 環境に応じて設定を読み込み
func Load(ctx context.Context) (*Config, error) {
	// AWS Lambda環境かどうか判定
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig(ctx)
	}
	return loadLocalConfig()
}

// loadLocalConfig ローカル開発環境用の設定読み込み
func loadLocalConfig() (*Config, error) {
	// .envファイルを読み込み（存在しない場合はエラーにしない）
	_ = godotenv.Load()

	cfg := baseConfig()
	cfg.DiscordBotToken = getEnvOrDefault("DISCORD_BOT_TOKEN", "")
	cfg.GoogleCredentials = getEnvOrDefault("GOOGLE_CREDENTIALS", "")
	cfg.ReportWebhookURL = getEnvOrDefault("REPORT_WEBHOOK_URL", "")

	// 必須設定項目の確認
	if cfg.DiscordBotToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN環境変数が設定されていません")
	}

	return cfg, nil
}

// loadAWSConfig AWS Lambda環境用の設定読み込み
func loadAWSConfig(ctx context.Context) (*Config, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}

	cfg := baseConfig()
	cfg.ssmClient = ssm.NewFromConfig(awsConfig)

	// Parameter Storeから機密情報を取得
	if err := cfg.loadFromParameterStore(ctx); err != nil {
		return nil, fmt.Errorf("Parameter Storeからの設定読み込みに失敗しました: %w", err)
	}

	return cfg, nil
}

// baseConfig 機密情報以外の環境変数を読み込む
func baseConfig() *Config {
	return &Config{
		DiscordAppID:   getEnvOrDefault("DISCORD_APP_ID", ""),
		DiscordGuildID: getEnvOrDefault("DISCORD_GUILD_ID", ""),
		ImportJobsFile: getEnvOrDefault("IMPORT_JOBS_FILE", "imports.yaml"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "INFO"),
		Timezone:       getEnvOrDefault("TIMEZONE", "UTC"),
	}
}

// loadFromParameterStore Parameter Storeから機密情報を読み込み
func (c *Config) loadFromParameterStore(ctx context.Context) error {
	// Discord Bot Tokenを取得（必須）
	tokenParam := getEnvOrDefault("DISCORD_BOT_TOKEN_PARAM", "/discord-ics-importer/discord-bot-token")
	token, err := c.getParameter(ctx, tokenParam, true)
	if err != nil {
		return fmt.Errorf("Discord Bot Tokenの取得に失敗しました: %w", err)
	}
	c.DiscordBotToken = token

	// Google認証情報・Webhook URLは任意
	if param := getEnvOrDefault("GOOGLE_CREDS_PARAM", ""); param != "" {
		creds, err := c.getParameter(ctx, param, true)
		if err != nil {
			return fmt.Errorf("Google認証情報の取得に失敗しました: %w", err)
		}
		c.GoogleCredentials = creds
	}
	if param := getEnvOrDefault("REPORT_WEBHOOK_URL_PARAM", ""); param != "" {
		webhookURL, err := c.getParameter(ctx, param, true)
		if err != nil {
			return fmt.Errorf("Webhook URLの取得に失敗しました: %w", err)
		}
		c.ReportWebhookURL = webhookURL
	}

	return nil
}

// getParameter Parameter Storeから指定されたパラメータを取得
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("パラメータ %s の取得に失敗しました: %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("パラメータ %s が空の値です", paramName)
	}

	return *result.Parameter.Value, nil
}

// ValidateGoogleCredentials Google認証情報がJSONとして解析できるか確認
func (c *Config) ValidateGoogleCredentials() error {
	var credentials map[string]interface{}
	if err := json.Unmarshal([]byte(c.GoogleCredentials), &credentials); err != nil {
		return fmt.Errorf("Google認証情報のJSON解析に失敗しました: %w", err)
	}
	return nil
}

// Location 設定されたタイムゾーンを読み込む
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーン %q の読み込みに失敗しました: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnvOrDefault 環境変数を取得し、存在しない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
