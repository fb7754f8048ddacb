package domain

import (
	"fmt"
	"strings"
)

// EntryFailure 反映に失敗したイベント
type EntryFailure struct {
	Name   string
	Action ActionKind
	Err    error
}

// Report 1回のインポートの結果
type Report struct {
	// Processed 検証を通過しエンジンで処理した件数（成功件数ではない）
	Processed int
	// Dropped 必須項目が欠けていて除外した件数
	Dropped int

	Created  int
	Replaced int
	Merged   int
	Skipped  int

	Failures []EntryFailure

	// AmbiguousNames サーバー上で重複していた既存イベント名
	AmbiguousNames []string
}

// Record 処理結果を集計に反映
func (r *Report) Record(kind ActionKind) {
	switch kind {
	case ActionCreate:
		r.Created++
	case ActionReplace:
		r.Replaced++
	case ActionMerge:
		r.Merged++
	case ActionSkip:
		r.Skipped++
	}
}

// Fail 失敗を記録
func (r *Report) Fail(name string, kind ActionKind, err error) {
	r.Failures = append(r.Failures, EntryFailure{Name: name, Action: kind, Err: err})
}

// Summary 利用者向けの結果メッセージ
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d events! (created %d, replaced %d, updated %d, skipped %d)",
		r.Processed, r.Created, r.Replaced, r.Merged, r.Skipped)

	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "\n%d failed:", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "\n- %s (%s): %v", f.Name, f.Action, f.Err)
		}
	}
	if len(r.AmbiguousNames) > 0 {
		fmt.Fprintf(&b, "\nSeveral existing events share these names, only one of each was matched: %s",
			strings.Join(r.AmbiguousNames, ", "))
	}
	return b.String()
}
