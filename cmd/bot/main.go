package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/c4-bot/discord-ics-importer/internal/app"
	"github.com/c4-bot/discord-ics-importer/internal/config"
	"github.com/c4-bot/discord-ics-importer/internal/domain"
	"github.com/c4-bot/discord-ics-importer/internal/interaction"
	"github.com/c4-bot/discord-ics-importer/internal/scheduler"
)

func main() {
	// .envファイルを読み込み（存在しない場合はエラーにしない）
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "bot",
		Usage: "Import .ics calendars into Discord scheduled events.",
		Commands: []*cli.Command{
			serveCommand(),
			registerCommand(),
			importCommand(),
			runJobsCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// setup 設定を読み込み、依存関係を組み立てる
func setup(c *cli.Context) (*app.App, error) {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return nil, fmt.Errorf("設定読み込みエラー: %w", err)
	}
	logger := config.NewLogger(cfg.LogLevel)
	return app.New(c.Context, cfg, logger)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Connect to Discord, handle /import-events and run scheduled imports.",
		Action: func(c *cli.Context) error {
			a, err := setup(c)
			if err != nil {
				return err
			}

			a.Session.AddHandler(a.Handler.OnInteractionCreate)
			if err := a.Session.Open(); err != nil {
				return fmt.Errorf("Discordへの接続に失敗しました: %w", err)
			}
			defer a.Session.Close()
			a.Logger.Info("Discordに接続しました")

			jobs, err := config.LoadJobs(a.Config.ImportJobsFile)
			if err != nil {
				return err
			}
			sched := scheduler.New(a.Jobs, a.Location, a.Logger)
			n, err := sched.Register(jobs)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			a.Logger.Info("スケジューラーを開始しました", "jobs", n)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case <-c.Context.Done():
			}
			a.Logger.Info("終了します")
			return nil
		},
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Register the /import-events command (guild-scoped when DISCORD_GUILD_ID is set).",
		Action: func(c *cli.Context) error {
			a, err := setup(c)
			if err != nil {
				return err
			}
			if err := interaction.RegisterCommands(a.Session, a.Config.DiscordAppID, a.Config.DiscordGuildID); err != nil {
				return err
			}
			a.Logger.Info("コマンドを登録しました", "command", interaction.CommandName, "guild_id", a.Config.DiscordGuildID)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a local .ics file into a guild.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "guild", Required: true, Usage: "Target guild ID."},
			&cli.PathFlag{Name: "file", Required: true, Usage: "Path to the .ics file."},
			&cli.StringFlag{Name: "policy", Value: string(domain.DefaultPolicy), Usage: "keep-both, keep-existing, keep-imported or merge."},
		},
		Action: func(c *cli.Context) error {
			policy, err := domain.ParsePolicy(c.String("policy"))
			if err != nil {
				return err
			}
			data, err := os.ReadFile(c.Path("file"))
			if err != nil {
				return fmt.Errorf("ファイルの読み込みに失敗しました: %w", err)
			}

			a, err := setup(c)
			if err != nil {
				return err
			}
			entries, err := a.Decoder.Decode(data)
			if err != nil {
				return err
			}

			reason := fmt.Sprintf("Bulk event creation via .ics file (%s)", filepath.Base(c.Path("file")))
			report, err := a.Importer.ImportEntries(c.Context, c.String("guild"), entries, policy, reason)
			if err != nil {
				return err
			}
			fmt.Println(report.Summary())
			return nil
		},
	}
}

func runJobsCommand() *cli.Command {
	return &cli.Command{
		Name:  "run-jobs",
		Usage: "Run the configured import jobs once.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "job", Usage: "Run only the named job."},
		},
		Action: func(c *cli.Context) error {
			a, err := setup(c)
			if err != nil {
				return err
			}
			jobs, err := config.LoadJobs(a.Config.ImportJobsFile)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				a.Logger.Warn("ジョブが定義されていません", "file", a.Config.ImportJobsFile)
				return nil
			}
			return a.Jobs.RunNamed(c.Context, jobs, c.String("job"))
		},
	}
}
