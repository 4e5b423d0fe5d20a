package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"time"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/team-rocos/rclbridge/bridge"
	"github.com/team-rocos/rclbridge/fake"
	"github.com/team-rocos/rclbridge/msgs"
	"github.com/team-rocos/rclbridge/rcl"
	"github.com/team-rocos/rclbridge/ros"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Fibonacci action and feed it goals from a simulated client",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := getServeConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		return serve(ctx, config)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("action-name", "fibonacci", "Name of the action server.")
	serveCmd.Flags().String("node-name", "rclbridge", "Name of the node hosting the action server.")
	serveCmd.Flags().Int("goals", 5, "Number of goals the simulated client sends.")
	serveCmd.Flags().Int32("order", 10, "Fibonacci order requested by each goal.")
	serveCmd.Flags().Float64("goal-rate", 2, "Goals sent per second.")
	serveCmd.Flags().String("goal-ids", "", `JSON array of goal ids, each a UUID string or an array of 16 bytes.`)
	serveCmd.Flags().Duration("wait-timeout", 100*time.Millisecond, "Timeout of each executor wait.")
	serveCmd.Flags().Duration("result-timeout", 15*time.Minute, "How long finished goals are kept.")
	serveCmd.Flags().String("log-level", "info", "Log level.")
	bindPFlags(serveCmd)
}

type serveConfig struct {
	ActionName    string
	NodeName      string
	Goals         int
	Order         int32
	GoalRate      float64
	GoalIDs       []msgs.UUID
	WaitTimeout   time.Duration
	ResultTimeout time.Duration
	LogLevel      string
}

func getServeConfig(cmd *cobra.Command) (*serveConfig, error) {
	prefix := getPrefix(cmd)
	config := &serveConfig{
		ActionName:    getString(cmd, "action-name"),
		NodeName:      getString(cmd, "node-name"),
		Goals:         viper.GetInt(prefix + "goals"),
		Order:         viper.GetInt32(prefix + "order"),
		GoalRate:      viper.GetFloat64(prefix + "goal-rate"),
		WaitTimeout:   viper.GetDuration(prefix + "wait-timeout"),
		ResultTimeout: viper.GetDuration(prefix + "result-timeout"),
		LogLevel:      getString(cmd, "log-level"),
	}
	if ids := getString(cmd, "goal-ids"); ids != "" {
		if err := json.Unmarshal([]byte(ids), &config.GoalIDs); err != nil {
			return nil, errors.Wrap(err, "invalid goal-ids")
		}
		config.Goals = len(config.GoalIDs)
	}
	if config.Goals < 0 {
		return nil, errors.Errorf("goals must not be negative, got %d", config.Goals)
	}
	if config.GoalRate <= 0 {
		return nil, errors.Errorf("goal-rate must be positive, got %v", config.GoalRate)
	}
	return config, nil
}

func serve(ctx context.Context, config *serveConfig) error {
	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return err
	}
	lib := fake.New()
	b := bridge.New(lib, bridge.WithLogger(logger))

	node, err := ros.NewNode(b, config.NodeName, "/")
	if err != nil {
		return err
	}
	defer logDispose(logger, "node", node.Dispose)

	var workers sync.WaitGroup
	server, err := ros.NewActionServer(node, config.ActionName, msgs.FibonacciAction,
		func(goal msgs.GoalRequest) ros.GoalResponse {
			if goal.GetGoal().(msgs.FibonacciGoal).Order < 0 {
				return ros.GoalReject
			}
			return ros.GoalAcceptAndExecute
		},
		func(ros.ServerGoalHandler) ros.CancelResponse { return ros.CancelAccept },
		func(gh ros.ServerGoalHandler) {
			workers.Add(1)
			go func() {
				defer workers.Done()
				order := gh.GetGoal().GetGoal().(msgs.FibonacciGoal).Order
				result := msgs.FibonacciResult{Sequence: msgs.Fibonacci(order)}
				if gh.IsCanceling() {
					_ = gh.SetCanceled(result)
					return
				}
				if err := gh.SetSucceeded(result); err != nil {
					l := *logger
					l.Errorf("failed to finish goal %s: %v", gh.GetGoalID(), err)
				}
			}()
		},
		ros.WithResultTimeout(config.ResultTimeout))
	if err != nil {
		return err
	}
	defer logDispose(logger, "action server", server.Dispose)

	executor, err := ros.NewExecutor(node)
	if err != nil {
		return err
	}
	defer logDispose(logger, "executor", executor.Dispose)
	executor.AddActionServer(server)

	spinCtx, stopSpin := context.WithCancel(ctx)
	spinDone := make(chan error, 1)
	go func() { spinDone <- executor.Spin(spinCtx, config.WaitTimeout) }()

	clientErr := runClient(ctx, lib, config, logger)
	stopSpin()
	spinErr := <-spinDone
	workers.Wait()
	if spinErr != nil {
		return errors.Wrap(spinErr, "executor failed")
	}
	return clientErr
}

// logDispose runs dispose and logs its failure, for use in defer.
func logDispose(logger *modular.ModuleLogger, what string, dispose func() error) {
	if err := dispose(); err != nil {
		l := *logger
		l.WithFields(logrus.Fields{"entity": what}).Errorf("failed to dispose: %v", err)
	}
}

// runClient sends the configured goals at the configured rate and waits for
// every result.
func runClient(ctx context.Context, lib *fake.Library, config *serveConfig, logger *modular.ModuleLogger) error {
	l := *logger
	client := lib.NewActionClient(config.ActionName)
	limiter := rate.NewLimiter(rate.Limit(config.GoalRate), 1)

	resultSeqs := make(map[msgs.UUID]int64)
	for i := 0; i < config.Goals; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		goalID := msgs.UUID{byte(i >> 8), byte(i), 0xb1}
		if i < len(config.GoalIDs) {
			goalID = config.GoalIDs[i]
		}
		goalSeq, err := client.SendGoalRequest(&msgs.FibonacciSendGoalRequest{GoalID: goalID, Goal: msgs.FibonacciGoal{Order: config.Order}})
		if err != nil {
			return err
		}
		id, _ := json.Marshal(bridge.EncodeRequestID(&rcl.RequestID{SequenceNumber: goalSeq, WriterGUID: client.GUID()}))
		l.WithFields(logrus.Fields{"goal_id": goalID.String(), "request_id": string(id)}).Info("goal sent")

		var resp msgs.FibonacciSendGoalResponse
		if err := poll(ctx, func() (bool, error) { return client.GoalResponse(goalSeq, &resp) }); err != nil {
			return err
		}
		if !resp.Accepted {
			l.WithField("goal_id", goalID.String()).Warn("goal rejected")
			continue
		}
		resultSeq, err := client.SendResultRequest(&msgs.FibonacciGetResultRequest{GoalID: goalID})
		if err != nil {
			return err
		}
		resultSeqs[goalID] = resultSeq
	}

	for goalID, seq := range resultSeqs {
		var result msgs.FibonacciGetResultResponse
		if err := poll(ctx, func() (bool, error) { return client.ResultResponse(seq, &result) }); err != nil {
			return err
		}
		l.WithFields(logrus.Fields{
			"goal_id":  goalID.String(),
			"status":   result.Status,
			"sequence": result.Result.Sequence,
		}).Info("goal finished")
	}
	return nil
}

func poll(ctx context.Context, check func() (bool, error)) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := check()
		if err != nil || ok {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
