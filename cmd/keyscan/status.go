package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/keyscan/internal/checkpoint"
	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List saved checkpoints",
		Long:  `Status lists every checkpoint in the checkpoint directory with its progress.`,
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}

	cmd.Flags().String("checkpoint-dir", "", "Checkpoint directory (default from config)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("checkpoint-dir") {
		cfg.Checkpoint.Dir, _ = cmd.Flags().GetString("checkpoint-dir")
	}

	store, err := checkpoint.NewFileStore(cfg.Checkpoint.Dir, checkpoint.WithLogger(setupLogger(cmd.ErrOrStderr(), cfg)))
	if err != nil {
		return err
	}
	states, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(states) == 0 {
		fmt.Fprintf(out, "No checkpoints in %s\n", store.Dir())
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tSTART\tEND\tCHECKED\tFOUND\tPOSITION\tUPDATED")
	for _, s := range states {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			s.Identity.Strategy, s.Identity.Start, s.Identity.End,
			s.AttemptsChecked, s.FoundCount, describePosition(s.Position),
			s.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func describePosition(p keyscan.Position) string {
	switch {
	case p.IsZero():
		return "fresh"
	case p.Offset != nil:
		return "0x" + p.Offset.Text(16)
	case len(p.Stack) == 0:
		return "done"
	default:
		return fmt.Sprintf("stack %d, next %s", len(p.Stack), p.Stack[len(p.Stack)-1])
	}
}
