package command

import (
	"flag"
	"fmt"
	"strings"
)

// PutCommand writes a raw key-value pair directly into the tree,
// bypassing the table layer.
type PutCommand struct{}

func (c *PutCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb put [options]

Options:

	-path=""  Database file to open
	-key=0    u32 key
	-value=0  u64 value
`)
}

func (c *PutCommand) Synopsis() string {
	return "Write a raw key-value pair"
}

func (c *PutCommand) Run(args []string) int {
	var path string
	var key, value uint

	flags := flag.NewFlagSet("put", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.UintVar(&key, "key", 0, "u32 key")
	flags.UintVar(&value, "value", 0, "u64 value")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	if err := db.PutU64(uint32(key), uint64(value)); err != nil {
		return printErr(err)
	}
	if err := db.Flush(); err != nil {
		return printErr(err)
	}

	fmt.Println("ok")
	return 0
}

// GetKVCommand reads a raw key-value pair directly from the tree.
type GetKVCommand struct{}

func (c *GetKVCommand) Help() string {
	return strings.TrimSpace(`
Usage: invdb get-kv [options]

Options:

	-path=""  Database file to open
	-key=0    u32 key
`)
}

func (c *GetKVCommand) Synopsis() string {
	return "Read a raw key-value pair"
}

func (c *GetKVCommand) Run(args []string) int {
	var path string
	var key uint

	flags := flag.NewFlagSet("get-kv", flag.ContinueOnError)
	flags.StringVar(&path, "path", "", "database file to open")
	flags.UintVar(&key, "key", 0, "u32 key")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	db, err := openDB(path, "warn")
	if err != nil {
		return printErr(err)
	}
	defer db.Close()

	value, found, err := db.GetU64(uint32(key))
	if err != nil {
		return printErr(err)
	}
	if !found {
		fmt.Println("not found")
		return 0
	}

	fmt.Println(value)
	return 0
}
