package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/invdb/invdb"
)

// CreateCommand creates a new database file, optionally seeding a demo
// table with sample rows.
type CreateCommand struct{}

func (c *CreateCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb create [options]

Options:

	-path=""       Database file to create
	-log-level=""  Log level (default info)
	-config=""     YAML config file (overrides -path/-log-level)
	-seed=false    Create a demo "items" table with sample rows
`)
}

func (c *CreateCommand) Synopsis() string {
	return "Create a new database file"
}

func (c *CreateCommand) Run(args []string) int {
	var path, logLevel, configPath string
	var seed bool

	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to create")
	flags.StringVar(&logLevel, "log-level", "info", "log level")
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.BoolVar(&seed, "seed", false, "seed a demo table with sample rows")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	path, logger, err := resolvePathAndLogger(configPath, path, logLevel)
	if err != nil {
		return printErr(err)
	}

	db, err := invdb.Create(path, logger)
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	if seed {
		if err := seedDemoTable(db); err != nil {
			return printErr(err)
		}
	}

	if err := db.Flush(); err != nil {
		return printErr(err)
	}

	fmt.Printf("created %s (version %d)\n", db.Path(), db.Version())
	return 0
}

func seedDemoTable(db *invdb.Db) error {
	schema, err := parseColumns("label:string,value:u32")
	if err != nil {
		return err
	}
	if _, err := db.CreateTable("items", schema); err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		row, err := parseValues(schema, fmt.Sprintf("%s,%d", uuid.New().String(), i))
		if err != nil {
			return err
		}
		if _, err := db.InsertRow("items", row); err != nil {
			return err
		}
	}
	return nil
}
