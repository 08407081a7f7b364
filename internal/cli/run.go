package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/emitz/internal/scenario"
)

func newRunCmd(opts *options) *cobra.Command {
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "run <script>...",
		Short: "Replay scripts and verify their traces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := scenario.NewRunner(opts.log)
			out := cmd.OutOrStdout()

			failed := 0
			for _, path := range args {
				script, err := scenario.Load(path)
				if err != nil {
					return err
				}

				result, err := runner.Run(script)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if showTrace {
					for _, line := range result.Trace {
						fmt.Fprintf(out, "  %s\n", line)
					}
				}

				if err := result.Verify(script.Expect); err != nil {
					failed++
					opts.log.Error().Err(err).Str("script", script.Name).Msg("replay failed")
					fmt.Fprintf(out, "FAIL %s\n", script.Name)
					continue
				}
				opts.log.Debug().Str("script", script.Name).Int("lines", len(result.Trace)).Msg("replay ok")
				fmt.Fprintf(out, "ok   %s\n", script.Name)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d scripts failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTrace, "trace", false, "print each recorded trace")
	return cmd
}
