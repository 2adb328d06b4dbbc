// Command procspawn runs programs with explicit stream, directory and
// environment control and exits with their status.
package main

import (
	"context"
	"os"

	"github.com/kbukum/procspawn/internal/cli"
	"github.com/kbukum/procspawn/process"
)

func main() {
	process.DispatchProducer()
	os.Exit(cli.Execute(context.Background()))
}
