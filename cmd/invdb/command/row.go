package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/invdb/invdb/internal/rowcodec"
)

// InsertCommand inserts one row into a table.
type InsertCommand struct{}

func (c *InsertCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb insert [options]

Options:

	-path=""    Database file to open
	-table=""   Table name
	-values=""  Comma-separated values, in schema column order
`)
}

func (c *InsertCommand) Synopsis() string {
	return "Insert a row into a table"
}

func (c *InsertCommand) Run(args []string) int {
	var path, table, values string

	flags := flag.NewFlagSet("insert", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.StringVar(&table, "table", "", "table name")
	flags.StringVar(&values, "values", "", "comma-separated values")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	def, ok := db.GetTable(table)
	if !ok {
		return printErr(fmt.Errorf("table %q not found", table))
	}

	row, err := parseValues(def.Schema, values)
	if err != nil {
		return printErr(err)
	}

	pk, err := db.InsertRow(table, row)
	if err != nil {
		return printErr(err)
	}

	if err := db.Flush(); err != nil {
		return printErr(err)
	}

	fmt.Printf("inserted pk=%d\n", pk)
	return 0
}

// GetCommand looks up one row by primary key.
type GetCommand struct{}

func (c *GetCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb get [options]

Options:

	-path=""   Database file to open
	-table=""  Table name
	-pk=0      Primary key to look up
`)
}

func (c *GetCommand) Synopsis() string {
	return "Look up a row by primary key"
}

func (c *GetCommand) Run(args []string) int {
	var path, table string
	var pk uint

	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.StringVar(&table, "table", "", "table name")
	flags.UintVar(&pk, "pk", 0, "primary key to look up")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	row, found, err := db.GetRowByPk(table, uint32(pk))
	if err != nil {
		return printErr(err)
	}
	if !found {
		fmt.Println("not found")
		return 0
	}

	printRow(pk, row.Values)
	return 0
}

// ScanCommand prints every row in a table, in ascending pk order.
type ScanCommand struct{}

func (c *ScanCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb scan [options]

Options:

	-path=""   Database file to open
	-table=""  Table name
`)
}

func (c *ScanCommand) Synopsis() string {
	return "Scan every row in a table"
}

func (c *ScanCommand) Run(args []string) int {
	var path, table string

	flags := flag.NewFlagSet("scan", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.StringVar(&table, "table", "", "table name")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	rows, err := db.ScanTable(table)
	if err != nil {
		return printErr(err)
	}

	for _, r := range rows {
		printRow(uint(r.PK), r.Row.Values)
	}
	return 0
}

func printRow(pk uint, values []rowcodec.Value) {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = formatValue(v)
	}
	fmt.Printf("%d\t%s\n", pk, strings.Join(fields, "\t"))
}
