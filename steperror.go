package docsbot

import (
	"fmt"
)

// Steps of the interactions handled by docsbot
const (
	StepResolveMessage = "resolveMessage"
	StepFetchHistory   = "fetchHistory"
	StepSendIntro      = "sendIntro"
	StepQuery          = "query"
	StepSendAnswer     = "sendAnswer"
	StepAddReactions   = "addReactions"
	StepPersistRecord  = "persistRecord"
	StepSendMenu       = "sendMenu"
	StepGenerateAds    = "generateAds"
	StepSendAdCopy     = "sendAdCopy"
	StepLookupThread   = "lookupThread"
	StepSubmitFeedback = "submitFeedback"
)

// StepError is the error of a failed interaction step. Handlers stop at the first failed step
type StepError struct {
	Step string
	Err  error
}

// Error returns the step and the reason it failed
func (e *StepError) Error() string {
	return fmt.Sprintf("step [%s] failed: %v", e.Step, e.Err)
}

// Unwrap returns the error that failed the step
func (e *StepError) Unwrap() error {
	return e.Err
}

// stepError returns a StepError for step if err is not nil or nil otherwise
func stepError(step string, err error) error {
	if err == nil {
		return nil
	}

	return &StepError{Step: step, Err: err}
}
