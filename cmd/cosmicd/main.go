// Command cosmicd is the CosmicComics server daemon and its admin CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Nytuo/cosmiccomics-server/cmd/cosmicd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
