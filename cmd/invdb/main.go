package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/invdb/invdb/cmd/invdb/command"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = append(args, "--help")
	}

	commands := map[string]cli.CommandFactory{
		"create": func() (cli.Command, error) {
			return &command.CreateCommand{}, nil
		},
		"open": func() (cli.Command, error) {
			return &command.OpenCommand{}, nil
		},
		"tables": func() (cli.Command, error) {
			return &command.TablesCommand{}, nil
		},
		"create-table": func() (cli.Command, error) {
			return &command.CreateTableCommand{}, nil
		},
		"insert": func() (cli.Command, error) {
			return &command.InsertCommand{}, nil
		},
		"get": func() (cli.Command, error) {
			return &command.GetCommand{}, nil
		},
		"scan": func() (cli.Command, error) {
			return &command.ScanCommand{}, nil
		},
		"put": func() (cli.Command, error) {
			return &command.PutCommand{}, nil
		},
		"get-kv": func() (cli.Command, error) {
			return &command.GetKVCommand{}, nil
		},
	}

	invCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("invdb"),
	}

	exitCode, err := invCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}
