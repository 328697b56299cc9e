package cmd

import (
	"fmt"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/spf13/cobra"
)

const timeLayout = "Mon, 02 Jan 2006 15:04:05 MST"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue health",
	Long:  `Shows pending, retriable, exhausted and stuck counts, the ids of stuck jobs and the most recent jobs.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClientFromConfig().QueueStatus(cmd.Context())
		if err != nil {
			return err
		}

		recent, _ := cmd.Flags().GetInt("recent")
		printQueueStatus(cmd, status, recent)
		return nil
	},
}

func printQueueStatus(cmd *cobra.Command, status *domain.QueueStatus, recent int) {
	s := status.Summary
	cmd.Printf("%sQueue Summary%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sPending:%s           %d\n", colorDim, colorReset, s.Pending)
	cmd.Printf("%sRetriable failed:%s  %d\n", colorDim, colorReset, s.RetriableFailed)
	cmd.Printf("%sExhausted failed:%s  %d\n", colorDim, colorReset, s.ExhaustedFailed)
	if s.Stuck > 0 {
		cmd.Printf("%sStuck:%s             %s%d%s\n", colorDim, colorReset, colorRed, s.Stuck, colorReset)
		for _, id := range status.StuckJobs {
			cmd.Printf("  %s\n", id)
		}
	} else {
		cmd.Printf("%sStuck:%s             0\n", colorDim, colorReset)
	}

	if len(status.RecentJobs) == 0 || recent <= 0 {
		return
	}

	cmd.Printf("\n%sRecent Jobs%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	for i, job := range status.RecentJobs {
		if i == recent {
			cmd.Printf("%s... %d more%s\n", colorDim, len(status.RecentJobs)-recent, colorReset)
			break
		}
		cmd.Printf("%s  %-36s  %-20s  %d/%d  %s ago\n",
			statusIcon(job.Status), job.JobID, job.JobType, job.RetryCount, job.MaxRetries, relativeTime(job.CreatedAt))
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case domain.JobStatusCompleted:
		return colorGreen + "✓" + colorReset
	case domain.JobStatusFailed:
		return colorRed + "✗" + colorReset
	case domain.JobStatusProcessing:
		return colorYellow + "⏳" + colorReset
	case domain.JobStatusPending:
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case domain.JobStatusCompleted:
		return icon + " " + colorGreen + status + colorReset
	case domain.JobStatusFailed:
		return icon + " " + colorRed + status + colorReset
	case domain.JobStatusProcessing:
		return icon + " " + colorYellow + status + colorReset
	case domain.JobStatusPending:
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func init() {
	statusCmd.Flags().Int("recent", 10, "number of recent jobs to list (0 hides the list)")
	rootCmd.AddCommand(statusCmd)
}
