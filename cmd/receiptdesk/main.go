package main

import "github.com/seyi-adel/receiptdesk/internal/cli"

func main() {
	cli.Execute()
}
