// Command chatdom applies host edits to chat transcript documents and
// inspects their journals.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/chatdom/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
