package cmd

import (
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one processing pass over the queue",
	Long: `Claims up to --max-jobs eligible jobs (pending, or failed with retries left)
in FIFO order and runs each through its registered handler. The server caps
--max-jobs at its configured maximum; 0 uses the server default.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxJobs, _ := cmd.Flags().GetInt("max-jobs")

		result, err := newClientFromConfig().ProcessQueue(cmd.Context(), maxJobs)
		if result != nil {
			cmd.Printf("Processed:  %d\n", result.Processed)
			cmd.Printf("Successful: %s%d%s\n", colorGreen, result.Successful, colorReset)
			cmd.Printf("Failed:     %s%d%s\n", colorRed, result.Failed, colorReset)
		}
		if err != nil {
			if result != nil {
				cmd.Println("Pass stopped early; counts above are partial")
			}
			return err
		}
		return nil
	},
}

func init() {
	processCmd.Flags().Int("max-jobs", 0, "maximum number of jobs to process in this pass")
	rootCmd.AddCommand(processCmd)
}
