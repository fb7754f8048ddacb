package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxCalendarSize 取得するカレンダーファイルの上限サイズ
const MaxCalendarSize = 8 << 20

// HTTPFetcher 添付ファイルやICS URLの内容を取得する
type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewHTTPFetcher HTTPフェッチャーを作成
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxBytes: MaxCalendarSize,
	}
}

// Fetch URLの内容を取得する。上限サイズを超える場合はエラー
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ファイルの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ファイルの取得に失敗しました (Status: %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み込みに失敗しました: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("ファイルサイズが上限(%dバイト)を超えています", f.maxBytes)
	}
	return body, nil
}
