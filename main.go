package main

import "github.com/klytics/md2docx/cmd"

func main() {
	cmd.Execute()
}
