package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/charterbots/internal/persona"
)

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the personas available to run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			reg, err := persona.Load(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tROLE\tWPM\tHESITATION\tERROR RATE\tPATIENCE")
			for _, p := range reg.All() {
				fmt.Fprintf(w, "%s\t%s\t%.0f\t%.2f\t%.3f\t%s-%s\n",
					p.Name, p.Role, p.TypingWPM, p.Hesitation, p.ErrorRate, p.Patience.Min, p.Patience.Max)
			}
			return w.Flush()
		},
	}
}
