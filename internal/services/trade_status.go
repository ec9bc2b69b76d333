package services

// Status is the lifecycle of the most recent store command.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var transitions = map[Status]map[Status]struct{}{
	StatusIdle:    {StatusPending: {}},
	StatusPending: {StatusSuccess: {}, StatusFailed: {}, StatusIdle: {}},
	StatusSuccess: {StatusIdle: {}},
	StatusFailed:  {StatusIdle: {}},
}

// CanTransition returns whether the store may move from one status to another.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// ErrorKind classifies the error behind a failed status.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	// KindCredentials means the trade service refused the console's own token.
	KindCredentials   ErrorKind = "credentials"
	KindNetwork       ErrorKind = "network"
	KindService       ErrorKind = "service"
)
