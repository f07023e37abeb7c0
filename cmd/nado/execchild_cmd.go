package main

import (
	"fmt"
	"os"

	"github.com/jihwankim/nado/pkg/sandbox/execchild"
	"github.com/spf13/cobra"
)

// execChildCmd is never invoked directly by a user. pkg/sandbox's
// runner re-execs this same binary with this hidden verb to apply
// POSIX resource limits between fork and exec, then replace itself
// in-place with the real candidate or origin program. On success
// execchild.Main never returns.
var execChildCmd = &cobra.Command{
	Use:    execchild.Subcommand,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := execchild.Main(); err != nil {
			fmt.Fprintln(os.Stderr, "nado:", err)
			os.Exit(1)
		}
		return nil
	},
}
