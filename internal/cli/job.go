package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для управления jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs",
	}

	cmd.AddCommand(
		newJobListCmd(clientFn, outputFn),
		newJobCreateCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
		newJobUpdateCmd(clientFn, outputFn),
		newJobDeleteCmd(clientFn, outputFn),
		newJobActivateCmd(clientFn, outputFn),
		newJobDeactivateCmd(clientFn, outputFn),
		newJobValidateCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "ACTIVE", "CREATED"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = []string{j.ID, j.Name, strconv.FormatBool(j.IsActive), j.CreatedAt}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}
}

func newJobCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var specFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new job from a spec file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			spec, err := LoadSpecFile(specFile)
			if err != nil {
				return err
			}

			job, err := client.CreateJob(CreateJobRequest{Name: name, Spec: spec})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job created: %s", job.ID))
			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{job.ID, job.Name, strconv.FormatBool(job.IsActive), job.CreatedAt}},
				job,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Job name (required)")
	cmd.Flags().StringVar(&specFile, "file", "", "Path to spec file, YAML or JSON (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED", "UPDATED"},
				[][]string{{job.ID, job.Name, strconv.FormatBool(job.IsActive), job.CreatedAt, job.UpdatedAt}},
				job,
			)
			return nil
		},
	}
}

func newJobUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var specFile string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a job's name or spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateJobRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("file") {
				spec, err := LoadSpecFile(specFile)
				if err != nil {
					return err
				}
				req.Spec = spec
			}

			job, err := client.UpdateJob(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Job updated")
			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "UPDATED"},
				[][]string{{job.ID, job.Name, strconv.FormatBool(job.IsActive), job.UpdatedAt}},
				job,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New job name")
	cmd.Flags().StringVar(&specFile, "file", "", "Path to new spec file, YAML or JSON")

	return cmd
}

func newJobDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a job with its runs and results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteJob(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job deleted: %s", args[0]))
			return nil
		},
	}
}

func newJobActivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "activate ID",
		Short: "Activate a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.SetJobActive(args[0], true); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job activated: %s", args[0]))
			return nil
		},
	}
}

func newJobDeactivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ID",
		Short: "Deactivate a job (runs can no longer be created)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.SetJobActive(args[0], false); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job deactivated: %s", args[0]))
			return nil
		},
	}
}

func newJobValidateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var specFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a spec file without saving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			spec, err := LoadSpecFile(specFile)
			if err != nil {
				return err
			}

			verdict, err := client.ValidateSpec(spec)
			if err != nil {
				return err
			}

			if !verdict.Valid {
				return fmt.Errorf("spec is invalid: %s", verdict.Error)
			}

			out.Success("Spec is valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&specFile, "file", "", "Path to spec file, YAML or JSON (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}
