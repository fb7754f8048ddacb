package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// maxWebhookContent Discordのメッセージ本文の上限文字数
const maxWebhookContent = 2000

// WebhookNotifier Discord Webhookを使用した定期インポート結果の通知
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
	clock      func() time.Time
	timezone   *time.Location
}

// webhookRequest Webhook実行APIのリクエスト構造体
type webhookRequest struct {
	Username string `json:"username,omitempty"`
	Content  string `json:"content"`
}

// webhookErrorResponse Discord APIのエラーレスポンス構造体
type webhookErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewWebhookNotifier Webhook通知クライアントを作成
func NewWebhookNotifier(webhookURL string, timezone *time.Location) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		clock:    time.Now,
		timezone: timezone,
	}
}

// SendImportReport ジョブの実行結果を通知
func (n *WebhookNotifier) SendImportReport(ctx context.Context, jobName string, report domain.Report) error {
	return n.execute(ctx, n.buildReportMessage(jobName, report))
}

// SendJobFailure ジョブが途中で失敗したことを通知
func (n *WebhookNotifier) SendJobFailure(ctx context.Context, jobName string, jobErr error) error {
	message := fmt.Sprintf("Scheduled import `%s` failed at %s\n%v",
		jobName, n.clock().In(n.timezone).Format("2006/01/02 15:04"), jobErr)
	return n.execute(ctx, message)
}

// buildReportMessage 結果通知用のメッセージを構築
func (n *WebhookNotifier) buildReportMessage(jobName string, report domain.Report) string {
	var messageBuilder strings.Builder
	now := n.clock().In(n.timezone)

	messageBuilder.WriteString(fmt.Sprintf("Scheduled import `%s` (%s)\n", jobName, now.Format("2006/01/02 15:04")))
	messageBuilder.WriteString(report.Summary())

	return truncate(messageBuilder.String(), maxWebhookContent)
}

// execute Webhookにメッセージを送信
func (n *WebhookNotifier) execute(ctx context.Context, message string) error {
	requestBody, err := json.Marshal(webhookRequest{
		Username: "Event Importer",
		Content:  truncate(message, maxWebhookContent),
	})
	if err != nil {
		return fmt.Errorf("リクエストボディのJSON変換に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Webhookリクエストの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	// 成功時は 204 No Content（?wait=true の場合は 200）
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		var errorResponse webhookErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResponse); err != nil {
			return fmt.Errorf("Webhook呼び出しが失敗しました (Status: %d, レスポンス解析不可: %v)", resp.StatusCode, err)
		}
		return fmt.Errorf("Webhook呼び出しが失敗しました (Status: %d): %s (code %d)",
			resp.StatusCode, errorResponse.Message, errorResponse.Code)
	}

	return nil
}

// truncate 文字数の上限で切り詰める
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
