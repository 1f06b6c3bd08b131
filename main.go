package main

import "github.com/ibc-ckb/connverifier/cmd"

func main() {
	cmd.Execute()
}
