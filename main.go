package main

import (
	"os"

	"dbkr/kontoauszug-reader/cmd/convert"
	"dbkr/kontoauszug-reader/cmd/extract"
	"dbkr/kontoauszug-reader/cmd/root"
	"dbkr/kontoauszug-reader/cmd/serve"
	"dbkr/kontoauszug-reader/internal/config"
)

func init() {
	// Environment from .env must be in place before viper reads it.
	config.LoadEnv()

	root.Init()

	root.Cmd.AddCommand(convert.Cmd)
	root.Cmd.AddCommand(extract.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
