// ragctl ingests documents and queries the StudyRAG store from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/akolanti/StudyRAG/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
