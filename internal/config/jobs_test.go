package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

const sampleJobs = `
jobs:
  - name: club-ics
    guild_id: "123456789"
    schedule: "0 6 * * *"
    source:
      ics_url: https://example.com/club.ics
  - name: club-google
    guild_id: "987654321"
    policy: keep-existing
    source:
      google_calendar_id: club@group.calendar.google.com
      horizon_days: 14
`

// --- ParseJobs テスト ---

func TestParseJobs(t *testing.T) {
	jobs, err := ParseJobs([]byte(sampleJobs))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, domain.ImportJob{
		Name:     "club-ics",
		GuildID:  "123456789",
		Policy:   domain.PolicyMerge,
		Schedule: "0 6 * * *",
		Source:   domain.JobSource{ICSURL: "https://example.com/club.ics", HorizonDays: domain.DefaultHorizonDays},
	}, jobs[0])

	assert.Equal(t, domain.PolicyKeepExisting, jobs[1].Policy)
	assert.Empty(t, jobs[1].Schedule)
	assert.Equal(t, "club@group.calendar.google.com", jobs[1].Source.GoogleCalendarID)
	assert.Equal(t, 14, jobs[1].Source.HorizonDays)
}

func TestParseJobs_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "名前なし",
			yaml:    "jobs:\n  - guild_id: g\n    source:\n      ics_url: https://example.com/a.ics\n",
			wantErr: "name が指定されていません",
		},
		{
			name:    "ギルドIDなし",
			yaml:    "jobs:\n  - name: a\n    source:\n      ics_url: https://example.com/a.ics\n",
			wantErr: "guild_id が指定されていません",
		},
		{
			name:    "インポート元なし",
			yaml:    "jobs:\n  - name: a\n    guild_id: g\n",
			wantErr: "どちらか一方",
		},
		{
			name:    "インポート元が二つ",
			yaml:    "jobs:\n  - name: a\n    guild_id: g\n    source:\n      ics_url: https://example.com/a.ics\n      google_calendar_id: cal\n",
			wantErr: "どちらか一方",
		},
		{
			name:    "不明なポリシー",
			yaml:    "jobs:\n  - name: a\n    guild_id: g\n    policy: overwrite-all\n    source:\n      ics_url: https://example.com/a.ics\n",
			wantErr: "不明な上書きポリシーです",
		},
		{
			name:    "取得期間が0",
			yaml:    "jobs:\n  - name: a\n    guild_id: g\n    source:\n      google_calendar_id: cal\n      horizon_days: 0\n",
			wantErr: "horizon_days",
		},
		{
			name:    "ジョブ名の重複",
			yaml:    "jobs:\n  - name: a\n    guild_id: g\n    source:\n      ics_url: https://example.com/a.ics\n  - name: a\n    guild_id: h\n    source:\n      ics_url: https://example.com/b.ics\n",
			wantErr: "重複しています",
		},
		{
			name:    "YAMLとして不正",
			yaml:    "jobs: [",
			wantErr: "ジョブ定義の解析に失敗しました",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJobs([]byte(tt.yaml))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// --- LoadJobs テスト ---

func TestLoadJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleJobs), 0o600))

	jobs, err := LoadJobs(path)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestLoadJobs_MissingFile(t *testing.T) {
	jobs, err := LoadJobs(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
