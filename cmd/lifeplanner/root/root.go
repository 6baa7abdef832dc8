package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "lifeplanner",
	Short:         "LifePlanner: tasks, habits, goals and a vision board",
	Long:          "LifePlanner keeps per-account tasks, habits, goals and vision board items, served over Telegram.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newBotCmd(),
		newTimerCmd(),
		newSignUpCmd(),
		newVerifyCmd(),
		newPurgeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}
