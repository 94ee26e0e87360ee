package main

import "bookstore/cmd/bookstore-admin/command"

func main() {
	command.Execute()
}
