package main

import "github.com/information-sharing-networks/newsletter/internal/cli"

func main() {
	cli.Execute()
}
