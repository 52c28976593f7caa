package main

import (
	"os"
	_ "time/tzdata" // IANA zones for per-request timezones on hosts without zoneinfo

	"github.com/isdelr/punchy-be/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
