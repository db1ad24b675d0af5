package main

import "github.com/KaramelBytes/surveyboard/cmd"

func main() {
	cmd.Execute()
}
