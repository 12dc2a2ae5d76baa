// SaveSmart grocery price comparison server and tools.
//
// Usage:
//
//	savesmart serve
//	savesmart migrate
//	savesmart vapid-keys
//	savesmart item add --name "Beras Wangi" --unit kg
//	savesmart compare 1:2 5 7:3
//	savesmart backup create
package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	app := &cli.App{
		Name:    "savesmart",
		Usage:   "Crowd-sourced grocery price comparison",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "savesmart.db",
				Usage:   "SQLite database file",
				EnvVars: []string{"SAVESMART_DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SAVESMART_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format (text, json)",
				EnvVars: []string{"SAVESMART_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			vapidKeysCommand(),
			itemCommand(),
			compareCommand(),
			backupCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
