package libtest_action_server

import (
	"context"
	"log"
	"reflect"
	"testing"
	"time"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/fake"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/ros"
)

// ActionServer serves Fibonacci goals, computing each result on its own
// goroutine.
type ActionServer struct {
	node *ros.Node
	as   ros.ActionServer
	done chan msgs.UUID
}

func newActionServer(node *ros.Node, name string) (*ActionServer, error) {
	s := &ActionServer{node: node, done: make(chan msgs.UUID, 8)}
	as, err := ros.NewActionServer(node, name, msgs.FibonacciAction,
		s.goalCallback, s.cancelCallback, s.acceptedCallback)
	if err != nil {
		return nil, err
	}
	s.as = as
	return s, nil
}

func (s *ActionServer) goalCallback(goal msgs.GoalRequest) ros.GoalResponse {
	log.Printf("Received goal: %v\n", goal.GetGoal())
	return ros.GoalAcceptAndExecute
}

func (s *ActionServer) cancelCallback(gh ros.ServerGoalHandler) ros.CancelResponse {
	return ros.CancelAccept
}

func (s *ActionServer) acceptedCallback(gh ros.ServerGoalHandler) {
	go func() {
		order := gh.GetGoal().GetGoal().(msgs.FibonacciGoal).Order
		result := msgs.FibonacciResult{Sequence: msgs.Fibonacci(order)}
		if err := gh.SetSucceeded(result); err != nil {
			log.Printf("failed to succeed goal %s: %v\n", gh.GetGoalID(), err)
			return
		}
		s.done <- gh.GetGoalID()
	}()
}

// spinServer spins the executor until ctx is done.
func spinServer(ctx context.Context, executor *ros.Executor, errc chan<- error) {
	errc <- executor.Spin(ctx, 50*time.Millisecond)
}

func waitFor(t *testing.T, what string, check func() (bool, error)) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ok, err := check()
		if err != nil {
			t.Fatalf("%s: %s", what, err)
		}
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func RTTest(t *testing.T) {
	lib := fake.New()
	b := bridge.New(lib)

	// Create the server node
	node, err := ros.NewNode(b, "test_fibonacci_server", "/")
	if err != nil {
		t.Fatalf("could not create server node: %s", err)
	}
	defer node.Dispose()

	server, err := newActionServer(node, "fibonacci")
	if err != nil {
		t.Fatalf("could not create action server: %s", err)
	}

	counts, err := b.ActionServerEntityCounts(server.as.Handle())
	if err != nil {
		t.Fatalf("could not read entity counts: %s", err)
	}
	if counts.Services != 3 || counts.Timers != 1 || counts.Clients != 0 || counts.Subscriptions != 0 {
		t.Fatalf("unexpected entity counts %+v", counts)
	}

	executor, err := ros.NewExecutor(node)
	if err != nil {
		t.Fatalf("could not create executor: %s", err)
	}
	defer executor.Dispose()
	executor.AddActionServer(server.as)

	// Spin server in another goroutine
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go spinServer(ctx, executor, errc)

	// Send a goal from a client
	client := lib.NewActionClient("fibonacci")
	goalID := msgs.UUID{0xf1, 0xb0}
	seq, err := client.SendGoalRequest(&msgs.FibonacciSendGoalRequest{GoalID: goalID, Goal: msgs.FibonacciGoal{Order: 10}})
	if err != nil {
		t.Fatalf("could not send goal: %s", err)
	}
	var goalResp msgs.FibonacciSendGoalResponse
	waitFor(t, "goal response", func() (bool, error) { return client.GoalResponse(seq, &goalResp) })
	if !goalResp.Accepted {
		t.Fatalf("goal %s was rejected", goalID)
	}

	select {
	case id := <-server.done:
		if id != goalID {
			t.Fatalf("finished goal %s, expected %s", id, goalID)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("goal %s never finished", goalID)
	}

	seq, err = client.SendResultRequest(&msgs.FibonacciGetResultRequest{GoalID: goalID})
	if err != nil {
		t.Fatalf("could not request result: %s", err)
	}
	var result msgs.FibonacciGetResultResponse
	waitFor(t, "result response", func() (bool, error) { return client.ResultResponse(seq, &result) })
	if result.Status != msgs.StatusSucceeded {
		t.Fatalf("goal finished with status %d", result.Status)
	}
	expected := []int32{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55}
	if !reflect.DeepEqual(result.Result.Sequence, expected) {
		t.Fatalf("unexpected sequence %v", result.Result.Sequence)
	}
	log.Printf("Result: %v\n", result.Result.Sequence)

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("executor failed: %s", err)
	}

	// Dispose is idempotent
	if err := server.as.Dispose(); err != nil {
		t.Fatalf("dispose failed: %s", err)
	}
	if err := server.as.Dispose(); err != nil {
		t.Fatalf("second dispose failed: %s", err)
	}
}
