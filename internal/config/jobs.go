package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c4-bot/discord-ics-importer/internal/domain"
)

// jobsFile インポートジョブ定義ファイルの構造
type jobsFile struct {
	Jobs []jobEntry `yaml:"jobs"`
}

type jobEntry struct {
	Name     string `yaml:"name"`
	GuildID  string `yaml:"guild_id"`
	Policy   string `yaml:"policy"`
	Schedule string `yaml:"schedule"`
	Source   struct {
		ICSURL           string `yaml:"ics_url"`
		GoogleCalendarID string `yaml:"google_calendar_id"`
		HorizonDays      *int   `yaml:"horizon_days"`
	} `yaml:"source"`
}

// LoadJobs YAMLファイルからインポートジョブを読み込む。ファイルが存在しない場合は空のリストを返す
func LoadJobs(path string) ([]domain.ImportJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ジョブ定義ファイルの読み込みに失敗しました: %w", err)
	}
	return ParseJobs(data)
}

// ParseJobs YAMLからインポートジョブを解析して検証する
func ParseJobs(data []byte) ([]domain.ImportJob, error) {
	var file jobsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ジョブ定義の解析に失敗しました: %w", err)
	}

	jobs := make([]domain.ImportJob, 0, len(file.Jobs))
	seen := make(map[string]struct{}, len(file.Jobs))
	for i, entry := range file.Jobs {
		job, err := entry.toJob()
		if err != nil {
			return nil, fmt.Errorf("ジョブ定義 %d 番目: %w", i+1, err)
		}
		if _, dup := seen[job.Name]; dup {
			return nil, fmt.Errorf("ジョブ名 %q が重複しています", job.Name)
		}
		seen[job.Name] = struct{}{}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (e jobEntry) toJob() (domain.ImportJob, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return domain.ImportJob{}, fmt.Errorf("name が指定されていません")
	}
	guildID := strings.TrimSpace(e.GuildID)
	if guildID == "" {
		return domain.ImportJob{}, fmt.Errorf("%s: guild_id が指定されていません", name)
	}

	policy, err := domain.ParsePolicy(strings.TrimSpace(e.Policy))
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("%s: %w", name, err)
	}

	icsURL := strings.TrimSpace(e.Source.ICSURL)
	calendarID := strings.TrimSpace(e.Source.GoogleCalendarID)
	if (icsURL == "") == (calendarID == "") {
		return domain.ImportJob{}, fmt.Errorf("%s: source には ics_url か google_calendar_id のどちらか一方を指定してください", name)
	}

	horizon := domain.DefaultHorizonDays
	if e.Source.HorizonDays != nil {
		if *e.Source.HorizonDays <= 0 {
			return domain.ImportJob{}, fmt.Errorf("%s: horizon_days は1以上を指定してください", name)
		}
		horizon = *e.Source.HorizonDays
	}

	return domain.ImportJob{
		Name:     name,
		GuildID:  guildID,
		Policy:   policy,
		Schedule: strings.TrimSpace(e.Schedule),
		Source: domain.JobSource{
			ICSURL:           icsURL,
			GoogleCalendarID: calendarID,
			HorizonDays:      horizon,
		},
	}, nil
}
