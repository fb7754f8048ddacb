package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/c4-bot/discord-ics-importer/internal/config"
	"github.com/c4-bot/discord-ics-importer/internal/gateway"
	"github.com/c4-bot/discord-ics-importer/internal/interaction"
	"github.com/c4-bot/discord-ics-importer/internal/usecase"
)

// App 設定から組み立てた依存関係一式
type App struct {
	Config   *config.Config
	Session  *discordgo.Session
	Decoder  *gateway.ICSDecoder
	Importer *usecase.ImportEventsUseCase
	Jobs     *usecase.RunJobsUseCase
	Handler  *interaction.Handler
	Location *time.Location
	Logger   *slog.Logger
}

// New Discordセッション・ゲートウェイ・ユースケースを組み立てる
// セッションは接続せずに返すため、REST呼び出しのみであればOpenは不要
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("Discordセッションの作成に失敗しました: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	decoder := gateway.NewICSDecoder()
	fetcher := gateway.NewHTTPFetcher()
	importer := usecase.NewImportEventsUseCase(gateway.NewDiscordEventStore(session), decoder, fetcher, logger)

	opts := []usecase.RunJobsOption{}
	if cfg.GoogleCredentials != "" {
		if err := cfg.ValidateGoogleCredentials(); err != nil {
			return nil, err
		}
		source, err := gateway.NewGoogleCalendarSource(ctx, []byte(cfg.GoogleCredentials), loc, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, usecase.WithCalendarSource(source))
	}
	if cfg.ReportWebhookURL != "" {
		opts = append(opts, usecase.WithReportNotifier(gateway.NewWebhookNotifier(cfg.ReportWebhookURL, loc)))
	}

	return &App{
		Config:   cfg,
		Session:  session,
		Decoder:  decoder,
		Importer: importer,
		Jobs:     usecase.NewRunJobsUseCase(importer, fetcher, decoder, logger, opts...),
		Handler:  interaction.NewHandler(importer, logger),
		Location: loc,
		Logger:   logger,
	}, nil
}
