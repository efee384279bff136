/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/ledtrack-go/cmd"

func main() {
	cmd.Execute()
}
