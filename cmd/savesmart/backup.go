package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/dukerupert/savesmart/internal/backup"
	"github.com/dukerupert/savesmart/internal/database"
	"github.com/dukerupert/savesmart/internal/logging"
)

func backupCommand() *cli.Command {
	flags := append(s3Flags(), &cli.StringFlag{
		Name:    "passphrase",
		Usage:   "Encryption passphrase",
		EnvVars: []string{"SAVESMART_BACKUP_PASSPHRASE"},
	})
	return &cli.Command{
		Name:  "backup",
		Usage: "Encrypted database backups in object storage",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Snapshot the database and upload it",
				Flags:  append(flags, &cli.IntFlag{Name: "keep", Value: 14, Usage: "Backups to retain after upload (0 keeps all)"}),
				Action: runBackupCreate,
			},
			{
				Name:   "list",
				Usage:  "List stored backups",
				Flags:  flags,
				Action: runBackupList,
			},
			{
				Name:      "restore",
				Usage:     "Replace the database with a stored backup; stop the server first",
				ArgsUsage: "KEY",
				Flags:     flags,
				Action:    runBackupRestore,
			},
		},
	}
}

func backupManager(c *cli.Context) *backup.Manager {
	logger := logging.Setup(c.String("log-level"), c.String("log-format"))
	return backup.NewManager(s3Config(c), c.String("passphrase"), logger.With("component", "backup"))
}

func runBackupCreate(c *cli.Context) error {
	db, err := database.Open(c.String("db-path"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m := backupManager(c)
	key, err := m.Run(c.Context, db)
	if err != nil {
		return err
	}
	fmt.Println(key)

	if keep := c.Int("keep"); keep > 0 {
		if _, err := m.Prune(c.Context, keep); err != nil {
			return err
		}
	}
	return nil
}

func runBackupList(c *cli.Context) error {
	objects, err := backupManager(c).List(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tCREATED")
	for _, o := range objects {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runBackupRestore(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one backup key")
	}
	return backupManager(c).Restore(c.Context, c.Args().First(), c.String("db-path"))
}
