package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	// store-emulator mint <role> печатает ключ для config.yaml
	if len(os.Args) > 2 && os.Args[1] == "mint" {
		if err := runMint(os.Stdout, os.Getenv("configPath"), os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	app := mustBootstrapEmulator()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
