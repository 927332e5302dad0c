package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/invdb/invdb"
)

// OpenCommand opens a database file, running the structural validator,
// and reports its basic facts.
type OpenCommand struct{}

func (c *OpenCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb open [options]

Options:

	-path=""       Database file to open
	-log-level=""  Log level (default info)
	-config=""     YAML config file (overrides -path/-log-level)
`)
}

func (c *OpenCommand) Synopsis() string {
	return "Open a database file and validate its structure"
}

func (c *OpenCommand) Run(args []string) int {
	var path, logLevel, configPath string

	flags := flag.NewFlagSet("open", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.StringVar(&logLevel, "log-level", "info", "log level")
	flags.StringVar(&configPath, "config", "", "YAML config file")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	path, logger, err := resolvePathAndLogger(configPath, path, logLevel)
	if err != nil {
		return printErr(err)
	}

	db, err := invdb.Open(path, logger)
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	fmt.Printf("opened %s (version %d, %d tables)\n", db.Path(), db.Version(), len(db.ListTables()))
	return 0
}

// TablesCommand lists every registered table.
type TablesCommand struct{}

func (c *TablesCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb tables [options]

Options:

	-path=""  Database file to open
`)
}

func (c *TablesCommand) Synopsis() string {
	return "List registered tables"
}

func (c *TablesCommand) Run(args []string) int {
	var path string

	flags := flag.NewFlagSet("tables", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	for _, def := range db.ListTables() {
		fmt.Printf("%d\t%s\t%s\n", def.ID, def.Name, def.Schema.String())
	}
	return 0
}

// CreateTableCommand registers a new table on an existing database.
type CreateTableCommand struct{}

func (c *CreateTableCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb create-table [options]

Options:

	-path=""     Database file to open
	-name=""     Table name
	-columns=""  "name:type[:nullable],..." column spec
`)
}

func (c *CreateTableCommand) Synopsis() string {
	return "Register a new table"
}

func (c *CreateTableCommand) Run(args []string) int {
	var path, name, columns string

	flags := flag.NewFlagSet("create-table", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.StringVar(&name, "name", "", "table name")
	flags.StringVar(&columns, "columns", "", "name:type[:nullable],...")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	schema, err := parseColumns(columns)
	if err != nil {
		return printErr(err)
	}

	id, err := db.CreateTable(name, schema)
	if err != nil {
		return printErr(err)
	}

	if err := db.Flush(); err != nil {
		return printErr(err)
	}

	fmt.Printf("created table %s (id %d)\n", name, id)
	return 0
}
