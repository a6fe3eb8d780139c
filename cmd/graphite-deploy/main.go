package main

import "github.com/flibidydibidy/graphite-deploy/cmd/graphite-deploy/cmd"

func main() {
	cmd.Execute()
}
