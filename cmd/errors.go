package cmd

import (
	"errors"
	"fmt"
)

func errFixturesRejected(rejected, total int) error {
	return fmt.Errorf("%d of %d fixtures rejected", rejected, total)
}

var (
	errMultipleOutputFlags = errors.New("can't pass both --json and --yaml, must pick one")
)
