/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/larswaechter/aionic-api/cmd"

func main() {
	cmd.Execute()
}
