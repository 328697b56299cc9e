package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jobctl",
	Short: "jobctl drives the inspection job queue from the terminal",
	Long: `jobctl talks to the job queue API service.

Common workflows:

  Enqueue a job:
    jobctl enqueue send_notification --payload '{"recipient":"ops@example.com","title":"Inspection due"}'

  Run one processing pass (same as the cron trigger):
    jobctl process --max-jobs 10

  Inspect queue health:
    jobctl status

  Show a single job:
    jobctl get <job-id>

Configuration:
  JOBCTL_URL    API endpoint (default: http://localhost:8080)
  A config file at $HOME/.jobctl.yaml may also set "url".`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".jobctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("JOBCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jobctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Job queue API URL")
	_ = viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}

func newClientFromConfig() *JobClient {
	return NewJobClient(viper.GetString("url"))
}
