package cmd

import (
	"encoding/json"
	"errors"

	"github.com/cuongbtq/inspection-jobs/internal/api/dto"
	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [job_type]",
	Short: "Create a pending job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		if !json.Valid([]byte(payload)) {
			return errors.New("--payload must be valid JSON")
		}

		req := dto.CreateJobRequest{
			JobType: args[0],
			Payload: json.RawMessage(payload),
		}
		if cmd.Flags().Changed("max-retries") {
			n, _ := cmd.Flags().GetInt("max-retries")
			req.MaxRetries = &n
		}

		job, err := newClientFromConfig().CreateJob(cmd.Context(), req)
		if err != nil {
			return err
		}

		cmd.Printf("Job enqueued!\nID:          %s\nType:        %s\nMax retries: %d\n",
			job.JobID, job.JobType, job.MaxRetries)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().String("payload", "{}", "job payload as a JSON document")
	enqueueCmd.Flags().Int("max-retries", 0, "override the handler's retry ceiling")
	rootCmd.AddCommand(enqueueCmd)
}
