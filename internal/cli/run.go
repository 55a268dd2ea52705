package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
		newRunResultsCmd(clientFn, outputFn),
		newRunResultCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var jobID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				JobID:  jobID,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "JOB_ID", "STATUS", "PRIORITY", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.JobID, r.Status, strconv.Itoa(r.Priority), r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job-id", "", "Filter by job ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, CANCELLING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var params []string
	var priority int
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "start JOB_ID",
		Short: "Start a new run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{
				Priority:       priority,
				IdempotencyKey: idempotencyKey,
			}

			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			req.Params = parsed

			run, err := client.CreateRun(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run started: %s", run.ID))
			out.Print(
				[]string{"ID", "JOB_ID", "STATUS", "PRIORITY", "CREATED"},
				[][]string{{run.ID, run.JobID, run.Status, strconv.Itoa(run.Priority), run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&params, "param", nil, "Run parameters as KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Run priority (0-10)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key (repeat returns the existing run)")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "JOB_ID", "STATUS", "STARTED", "FINISHED", "ERROR"},
				[][]string{{run.ID, run.JobID, run.Status, run.StartedAt, run.FinishedAt, run.Error}},
				run,
			)
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Request cooperative cancellation of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelRun(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run cancellation requested: %s (status %s)", run.ID, run.Status))
			return nil
		},
	}
}

func newRunResultsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "results RUN_ID",
		Short: "List step results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			results, err := client.ListResults(args[0])
			if err != nil {
				return err
			}

			headers := []string{"STEP", "STATUS", "HTTP", "SIZE", "ERROR"}
			rows := make([][]string, len(results))
			for i, r := range results {
				httpCode := ""
				if r.StatusCode > 0 {
					httpCode = strconv.Itoa(r.StatusCode)
				}
				rows[i] = []string{r.StepName, r.Status, httpCode, strconv.Itoa(r.ContentSize), r.Error}
			}

			out.Print(headers, rows, results)
			return nil
		},
	}
}

func newRunResultCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var contentOnly bool

	cmd := &cobra.Command{
		Use:   "result RUN_ID STEP",
		Short: "Show the full result of one step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.GetResult(args[0], args[1])
			if err != nil {
				return err
			}

			// Сырой content удобно направлять в файл или пайп
			if contentOnly {
				fmt.Print(result.Content)
				return nil
			}

			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&contentOnly, "content", false, "Print only the raw fetched content")

	return cmd
}

// parseParams разбирает флаги KEY=VALUE в параметры run.
//
// Значение сначала пробуем разобрать как JSON-литерал, чтобы числа и
// булевы значения пришли в API типизированными и прошли проверку
// объявленных параметров; всё остальное передаётся строкой.
func parseParams(kvs []string) (map[string]any, error) {
	if len(kvs) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid param format %q, expected KEY=VALUE", kv)
		}

		var v any
		if err := json.Unmarshal([]byte(parts[1]), &v); err == nil {
			params[parts[0]] = v
		} else {
			params[parts[0]] = parts[1]
		}
	}

	return params, nil
}
