package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
)

// NewFilterCmd creates the filter command.
func NewFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter HEX...",
		Short: "Check hex strings against the candidate pattern filter",
		Long: `Filter reports whether each argument passes the hex pattern filter applied
to candidates before key derivation, and which rule rejected it otherwise.

Rules, in order:
  triple             a character repeated three or more times in a row
  restricted_double  66, 99, aa or dd anywhere
  repeated_double    the same adjacent pair occurring twice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trim, err := cmd.Flags().GetBool("trim-leading-zeros")
			if err != nil {
				return err
			}
			f := keyscan.HexFilter{TrimLeadingZeros: trim}
			out := cmd.OutOrStdout()
			for _, arg := range args {
				v, err := f.Check(arg)
				switch {
				case err != nil:
					fmt.Fprintf(out, "%s\tinvalid: %v\n", arg, err)
				case v.Valid:
					fmt.Fprintf(out, "%s\tvalid\n", arg)
				default:
					fmt.Fprintf(out, "%s\trejected (%s)\n", arg, v.Rule)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("trim-leading-zeros", false, "Ignore leading zeros")

	return cmd
}
