package libtest_action_server

import "testing"

func TestActionServer(t *testing.T) {
	RTTest(t)
}
