/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/longkey1/turnchat/cmd"

func main() {
	cmd.Execute()
}
