package main

import "github.com/vietddude/notifier/internal/cli"

func main() {
	cli.Execute()
}
