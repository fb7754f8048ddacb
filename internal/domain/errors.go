package domain

import (
	"errors"
	"fmt"
)

// ErrOutsideGuild サーバー外でコマンドが実行された
var ErrOutsideGuild = errors.New("サーバー外ではインポートできません")

// CalendarMIMEType 受け付けるカレンダーファイルのメディアタイプ
const CalendarMIMEType = "text/calendar"

// AttachmentTypeError 添付ファイルのContent-Typeがカレンダーではない
type AttachmentTypeError struct {
	ContentType string
}

func (e *AttachmentTypeError) Error() string {
	return fmt.Sprintf("添付ファイルの種類がカレンダーではありません: %q", e.ContentType)
}

// DecodeError カレンダーファイルの読み込みに失敗した
// このエラーが返った場合イベントは1件も反映されない
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
