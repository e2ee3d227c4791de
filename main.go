/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/jjudge/judge-api/cmd"

func main() {
	cmd.Execute()
}
