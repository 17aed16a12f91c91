package main

import "github.com/AlessandroGasperini/pinky/internal/cli"

func main() {
	cli.Execute()
}
