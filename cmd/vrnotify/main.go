// Package main is the entry point for vrnotify.
package main

func main() {
	Execute()
}
