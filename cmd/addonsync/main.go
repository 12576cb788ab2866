package main

import (
	"github.com/tacogips/addonsync/internal/cli"
)

func main() {
	cli.Execute()
}
