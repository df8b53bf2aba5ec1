package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/nexconsult/cnpj-enricher/internal/utils"
	"github.com/spf13/cobra"
)

// ErrInvalidCNPJ is returned when at least one argument fails validation.
var ErrInvalidCNPJ = errors.New("one or more CNPJs are invalid")

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <cnpj>...",
		Short: "Check CNPJ check digits without any lookup",
		Long: `Normalize each argument (digits only, left-padded to 14) and verify its
length, sequence and check digits. Exits non-zero when any is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, args []string) error {
	infos := make([]utils.CNPJInfo, 0, len(args))
	invalid := 0
	for _, raw := range args {
		info := utils.AnalyzeCNPJ(raw)
		if !info.Validation.Valid {
			invalid++
		}
		infos = append(infos, info)
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, info := range infos {
			if info.Validation.Valid {
				fmt.Fprintf(tw, "%s\t%s\tOK\n", info.Original, info.Formatted)
			} else {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Original, info.Normalized, info.Validation.Reason)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidCNPJ, invalid, len(args))
	}
	return nil
}
