package cmd

import (
	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [job_id]",
	Short: "Show a single job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := newClientFromConfig().GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printJob(cmd, job)
		return nil
	},
}

func printJob(cmd *cobra.Command, job *domain.Job) {
	cmd.Printf("%s %sJob Details%s\n", statusIcon(job.Status), colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, job.JobID)
	cmd.Printf("%sType:%s        %s\n", colorDim, colorReset, job.JobType)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	cmd.Printf("%sAttempts:%s    %d/%d\n", colorDim, colorReset, job.RetryCount, job.MaxRetries)
	if job.ErrorMessage != nil {
		cmd.Printf("%sError:%s       %s%s%s\n", colorDim, colorReset, colorRed, *job.ErrorMessage, colorReset)
	}
	cmd.Printf("%sCreated:%s     %s\n", colorDim, colorReset, job.CreatedAt.Format(timeLayout))
	if job.StartedAt != nil {
		cmd.Printf("%sStarted:%s     %s\n", colorDim, colorReset, job.StartedAt.Format(timeLayout))
	}
	if job.StartedAt != nil && job.CompletedAt != nil {
		cmd.Printf("%sFinished:%s    %s %s(%s)%s\n", colorDim, colorReset,
			job.CompletedAt.Format(timeLayout), colorCyan, formatDuration(job.CompletedAt.Sub(*job.StartedAt)), colorReset)
	}
}

func init() {
	rootCmd.AddCommand(getCmd)
}
