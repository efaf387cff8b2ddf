// Command stagesync runs and monitors a staged remote sync job.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/stagesync/internal/adapters/driving/cli"
	"github.com/custodia-labs/stagesync/internal/app"
)

// version is set by the release build via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP)
	defer stop()

	cli.SetVersion(version)
	cli.SetBuilder(app.Build)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
