package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/c4-bot/discord-ics-importer/internal/app"
	"github.com/c4-bot/discord-ics-importer/internal/config"
)

// LambdaEvent Lambda実行時のイベント構造体
type LambdaEvent struct {
	// Job 実行するジョブ名。空の場合は全ジョブを実行
	Job string `json:"job"`
}

// LambdaResponse Lambda実行結果のレスポンス
type LambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// handler EventBridge Schedulerから呼ばれ、定期インポートを実行する
func handler(ctx context.Context, event LambdaEvent) (LambdaResponse, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return LambdaResponse{
			StatusCode: 500,
			Message:    "設定読み込みエラー",
		}, err
	}
	logger := config.NewLogger(cfg.LogLevel)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return LambdaResponse{
			StatusCode: 500,
			Message:    "初期化エラー",
		}, err
	}

	jobs, err := config.LoadJobs(cfg.ImportJobsFile)
	if err != nil {
		return LambdaResponse{
			StatusCode: 500,
			Message:    "ジョブ定義読み込みエラー",
		}, err
	}
	if len(jobs) == 0 {
		return LambdaResponse{
			StatusCode: 200,
			Message:    "ジョブなしのためスキップ",
		}, nil
	}

	if err := a.Jobs.RunNamed(ctx, jobs, event.Job); err != nil {
		logger.Error("インポートジョブが失敗しました", "error", err)
		return LambdaResponse{
			StatusCode: 500,
			Message:    "インポートジョブ実行エラー",
		}, err
	}

	return LambdaResponse{
		StatusCode: 200,
		Message:    "インポート完了",
	}, nil
}

func main() {
	lambda.Start(handler)
}
