package app

import (
	"os"

	"github.com/Egor213/LogDash/internal/validators"
	"github.com/spf13/cobra"
)

type filterFlags struct {
	service string
	ip      string
	exactIP bool
	from    string
	to      string
	keyword string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.service, "service", "", "apache, ftp or all")
	cmd.Flags().StringVar(&f.ip, "ip", "", "client IP substring")
	cmd.Flags().BoolVar(&f.exactIP, "exact-ip", false, "match --ip exactly")
	cmd.Flags().StringVar(&f.from, "from", "", "start, YYYY-MM-DD or YYYY-MM-DDTHH:MM (inclusive)")
	cmd.Flags().StringVar(&f.to, "to", "", "end, YYYY-MM-DD or YYYY-MM-DDTHH:MM (inclusive)")
	cmd.Flags().StringVar(&f.keyword, "keyword", "", "text searched in the free-text columns")
}

func (f *filterFlags) raw() validators.RawCriteria {
	return validators.RawCriteria{
		Service: f.service,
		IP:      f.ip,
		ExactIP: f.exactIP,
		From:    f.from,
		To:      f.to,
		Keyword: f.keyword,
	}
}

func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "logdash",
		Short: "Browse, filter and summarize Apache and FTP logs",
		Long: `logdash reads Apache and FTP log tables, merges them into one
time-ordered stream and builds reports over it.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $APP_CONFIG_PATH or config/config.yaml)")

	configPath := func() string { return cfgFile }
	root.AddCommand(
		newEventsCmd(configPath),
		newExportCmd(configPath),
		newReportCmd(configPath),
		newDailyCmd(configPath),
		newMigrateCmd(configPath),
		newServeCmd(configPath),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
