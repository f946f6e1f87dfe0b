package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "focal",
	Short: "A few things worth your attention right now",
	Long:  "Focal keeps an unbounded backlog of reminders and surfaces the handful that matter at this moment, ranked by your own behavior. Single Go binary, local only.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(eventCmd("seen", "Mark an item as seen"))
	rootCmd.AddCommand(eventCmd("opened", "Mark an item as opened"))
	rootCmd.AddCommand(eventCmd("dismissed", "Dismiss an item"))
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(unpinCmd)
	rootCmd.AddCommand(quietCmd)
	rootCmd.AddCommand(rmCmd)
}
