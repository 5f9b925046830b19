// Package main runs the lifpace command line tool.
package main

import "github.com/sarchlab/lifpace/lifpace/cmd"

func main() {
	cmd.Execute()
}
