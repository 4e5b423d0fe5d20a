package main

import (
	"testing"

	"github.com/team-rocos/rclbridge/libtest/libtest_action_server"
)

func main() {
	t := new(testing.T)
	libtest_action_server.RTTest(t)
}
