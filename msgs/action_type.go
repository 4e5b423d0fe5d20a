package msgs

// ActionType creates the request and response messages of one action type.
type ActionType interface {
	TypeName() string
	NewGoalRequest() GoalRequest
	NewGoalResponse() GoalResponse
	NewResultRequest() ResultRequest
	NewResultResponse() ResultResponse
}

// GoalRequest is a <Action>_SendGoal_Request.
type GoalRequest interface {
	Serializable
	GetGoalID() UUID
	SetGoalID(id UUID)
	GetGoal() interface{}
}

// GoalResponse is a <Action>_SendGoal_Response.
type GoalResponse interface {
	Serializable
	IsAccepted() bool
	SetAccepted(accepted bool)
	SetStamp(stamp Time)
}

// ResultRequest is a <Action>_GetResult_Request.
type ResultRequest interface {
	Serializable
	GetGoalID() UUID
	SetGoalID(id UUID)
}

// ResultResponse is a <Action>_GetResult_Response.
type ResultResponse interface {
	Serializable
	GetStatus() int8
	SetStatus(status int8)
	GetResult() interface{}
	SetResult(result interface{}) error
}
