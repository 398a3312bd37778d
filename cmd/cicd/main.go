// ABOUTME: Entrypoint for the cicd CLI; all behavior lives in the cli package.
package main

import (
	"os"

	"github.com/jkalend/custom-cicd/cli"
)

func main() {
	os.Exit(cli.Execute())
}
