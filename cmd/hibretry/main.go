package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/psantana5/hibernate-retry/cmd/hibretry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrNotHibernated) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
