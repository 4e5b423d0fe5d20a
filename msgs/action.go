package msgs

import (
	"bytes"

	"github.com/pkg/errors"
)

// Goal status codes of action_msgs/msg/GoalStatus.
const (
	StatusUnknown   int8 = 0
	StatusAccepted  int8 = 1
	StatusExecuting int8 = 2
	StatusCanceling int8 = 3
	StatusSucceeded int8 = 4
	StatusCanceled  int8 = 5
	StatusAborted   int8 = 6
)

// Return codes of action_msgs/srv/CancelGoal.
const (
	CancelErrorNone           int8 = 0
	CancelErrorRejected       int8 = 1
	CancelErrorUnknownGoalID  int8 = 2
	CancelErrorGoalTerminated int8 = 3
)

// GoalInfo is action_msgs/msg/GoalInfo.
type GoalInfo struct {
	GoalID UUID
	Stamp  Time
}

func (g *GoalInfo) TypeName() string { return "action_msgs/msg/GoalInfo" }

func (g *GoalInfo) Serialize(buf *bytes.Buffer) {
	g.GoalID.Serialize(buf)
	g.Stamp.Serialize(buf)
}

func (g *GoalInfo) Deserialize(buf *bytes.Reader) error {
	if err := g.GoalID.Deserialize(buf); err != nil {
		return errors.Wrap(err, "goal_id")
	}
	return errors.Wrap(g.Stamp.Deserialize(buf), "stamp")
}

// GoalStatus is action_msgs/msg/GoalStatus.
type GoalStatus struct {
	GoalInfo GoalInfo
	Status   int8
}

func (g *GoalStatus) TypeName() string { return "action_msgs/msg/GoalStatus" }

func (g *GoalStatus) Serialize(buf *bytes.Buffer) {
	g.GoalInfo.Serialize(buf)
	enc.EncodeInt8(buf, g.Status)
}

func (g *GoalStatus) Deserialize(buf *bytes.Reader) error {
	if err := g.GoalInfo.Deserialize(buf); err != nil {
		return err
	}
	var err error
	g.Status, err = dec.DecodeInt8(buf)
	return err
}

// CancelGoalRequest is action_msgs/srv/CancelGoal_Request. A zero goal id
// with a zero stamp cancels every goal; a zero id with a stamp cancels the
// goals accepted at or before it.
type CancelGoalRequest struct {
	GoalInfo GoalInfo
}

func (c *CancelGoalRequest) TypeName() string { return "action_msgs/srv/CancelGoal_Request" }

func (c *CancelGoalRequest) Serialize(buf *bytes.Buffer) {
	c.GoalInfo.Serialize(buf)
}

func (c *CancelGoalRequest) Deserialize(buf *bytes.Reader) error {
	return c.GoalInfo.Deserialize(buf)
}

// CancelGoalResponse is action_msgs/srv/CancelGoal_Response.
type CancelGoalResponse struct {
	ReturnCode     int8
	GoalsCanceling []GoalInfo
}

func (c *CancelGoalResponse) TypeName() string { return "action_msgs/srv/CancelGoal_Response" }

func (c *CancelGoalResponse) Serialize(buf *bytes.Buffer) {
	enc.EncodeInt8(buf, c.ReturnCode)
	enc.EncodeUint32(buf, uint32(len(c.GoalsCanceling)))
	for i := range c.GoalsCanceling {
		c.GoalsCanceling[i].Serialize(buf)
	}
}

func (c *CancelGoalResponse) Deserialize(buf *bytes.Reader) error {
	var err error
	if c.ReturnCode, err = dec.DecodeInt8(buf); err != nil {
		return err
	}
	n, err := dec.DecodeUint32(buf)
	if err != nil {
		return err
	}
	// Each GoalInfo is 24 bytes on the wire.
	if int(n)*24 > buf.Len() {
		return errors.Errorf("goals_canceling length %d exceeds buffer", n)
	}
	c.GoalsCanceling = make([]GoalInfo, n)
	for i := range c.GoalsCanceling {
		if err := c.GoalsCanceling[i].Deserialize(buf); err != nil {
			return errors.Wrapf(err, "goals_canceling[%d]", i)
		}
	}
	return nil
}
