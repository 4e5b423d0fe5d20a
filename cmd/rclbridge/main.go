package main

import "github.com/team-rocos/rclbridge/cmd/rclbridge/cmd"

func main() {
	cmd.Execute()
}
