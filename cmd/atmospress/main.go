package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := newRootCommand().Execute()
	if err == nil {
		return 0
	}
	colorize := shouldColorize(os.Stderr)
	tag := renderStatusTag(statusError, err.Error(), colorize)
	if errors.Is(err, context.Canceled) {
		tag = renderStatusTag(statusCanceled, "Interrupted.", colorize)
	}
	fmt.Fprintln(os.Stderr, tag)
	return 1
}
