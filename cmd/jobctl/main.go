// Package main is the entry point for jobctl, the operator CLI for the job queue API.
package main

import (
	"os"

	"github.com/cuongbtq/inspection-jobs/cmd/jobctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
