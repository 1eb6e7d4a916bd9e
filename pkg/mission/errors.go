package mission

import "errors"

var (
	// ErrShutdown ends the run loop: the operator said quit, the command
	// source closed, or the process is being interrupted.
	ErrShutdown = errors.New("mission: shutdown")

	// ErrAborted is the cancel cause set by AbortSwitch.Trigger.
	ErrAborted = errors.New("mission: aborted by operator")

	// ErrRetriesExhausted is returned by Retry when every attempt failed.
	ErrRetriesExhausted = errors.New("mission: retries exhausted")

	// ErrGripFailed means the gripper closed on nothing.
	ErrGripFailed = errors.New("mission: grip verification failed")
)
