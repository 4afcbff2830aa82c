package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	// queue
	var statusFlag string
	var limitFlag int
	queueCmd := &cobra.Command{
		Use:   "queue ACCOUNT_ID",
		Short: "List the opportunity queue for an account, best first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := map[string]string{}
			if statusFlag != "" {
				query["status"] = statusFlag
			}
			if limitFlag > 0 {
				query["limit"] = strconv.Itoa(limitFlag)
			}
			out, err := doGet(fmt.Sprintf("/api/accounts/%s/opportunities", args[0]), query)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	queueCmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (pending, responded, dismissed, expired)")
	queueCmd.Flags().IntVarP(&limitFlag, "limit", "l", 0, "Maximum results")
	rootCmd.AddCommand(queueCmd)

	// trigger
	triggerCmd := &cobra.Command{
		Use:   "trigger ACCOUNT_ID TYPE",
		Short: "Run a discovery job now (TYPE: replies or search)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doPost(fmt.Sprintf("/api/accounts/%s/discovery/%s/trigger", args[0], args[1]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(triggerCmd)

	// mark
	var markStatus string
	markCmd := &cobra.Command{
		Use:   "mark ACCOUNT_ID OPPORTUNITY_ID",
		Short: "Mark an opportunity responded or dismissed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if markStatus == "" {
				return fmt.Errorf("--status required")
			}
			out, err := doPatch(
				fmt.Sprintf("/api/accounts/%s/opportunities/%s", args[0], args[1]),
				map[string]string{"status": markStatus},
			)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	markCmd.Flags().StringVarP(&markStatus, "status", "s", "", "New status (responded or dismissed)")
	_ = markCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(markCmd)

	// jobs
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show the scheduler's registered discovery jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet("/api/scheduler/jobs", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(jobsCmd)

	// reload
	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Rebuild the scheduler's job registry from current account schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doPost("/api/scheduler/reload")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(reloadCmd)

	// health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := doGet("/api/health", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)
}
