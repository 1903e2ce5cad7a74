// Command llmadmin performs one-off administration tasks against the LLM admin database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "llmadmin:", err)
		os.Exit(1)
	}
}
