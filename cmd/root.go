package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configDefault 内置的默认配置，找不到配置文件时写出
var configDefault string

var rootCmd = &cobra.Command{
	Use:   "preppal-study-sync",
	Short: "PrepPal study sync service",
	Long: `Notes, generated Q&A cards, flashcard study sessions and review reminders.

Run "preppal-study-sync run" for the HTTP/WebSocket server, or use the
offline subcommands (notes, deck, study, stats, timeline) against the
local database.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute 执行命令行，c 为内置的默认配置
func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
