package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	internalApp "github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/dao"
	"github.com/haierkeys/preppal-study-sync/internal/middleware"
	"github.com/haierkeys/preppal-study-sync/internal/upgrade"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliFlags 离线子命令共用参数
type cliFlags struct {
	config  string
	profile string
}

var cliEnv = &cliFlags{}

// addCLIFlags 为离线子命令注册 -c / -p
func addCLIFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVarP(&cliEnv.config, "config", "c", "", "config file")
	fs.StringVarP(&cliEnv.profile, "profile", "p", middleware.DefaultProfile, "local storage profile")
}

// withApp 按配置打开数据库与 App Container，执行 fn 后优雅关闭
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *internalApp.App) error) error {
	configPath, err := resolveConfig(cliEnv.config)
	if err != nil {
		return err
	}
	cfg, _, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	lg := bootstrapLogger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	db, err := dao.NewDBEngine(cfg.GetDatabaseConfig())
	if err != nil {
		return errors.Wrap(err, "initDatabase")
	}
	if cfg.Database.AutoMigrate {
		if err := upgrade.Execute(context.Background(), db, lg); err != nil {
			return errors.Wrap(err, "upgrade")
		}
	}
	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runErr := fn(ctx, a)
	if err := a.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
