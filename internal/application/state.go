package application

import (
	"context"

	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

// transitions is the closed adjacency table of the state machine.
// EXPIRED and CANCELLED are reachable from every non-terminal state and
// handled separately in CanTransition.
var transitions = map[Status][]Status{
	StatusInitiated:               {StatusDocumentsPending},
	StatusDocumentsPending:        {StatusDocumentsUploaded},
	StatusDocumentsUploaded:       {StatusFaceVerificationPending},
	StatusFaceVerificationPending: {StatusInProgress},
	StatusInProgress:              {StatusUnderReview},
	StatusUnderReview:             {StatusApproved, StatusRejected},
}

// CanTransition reports whether moving from one status to another is a
// legal step of the state machine.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusExpired || to == StatusCancelled {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the application to the target status, appending a
// history entry. Illegal moves return an invalid-state error and leave
// the aggregate untouched.
func (a *Application) Transition(ctx context.Context, to Status, event, detail string) error {
	if a.Status.IsTerminal() {
		return ErrTerminal
	}
	if !CanTransition(a.Status, to) {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"illegal transition from %s to %s", a.Status, to)
	}
	now := requestcontext.Now(ctx)
	a.History = append(a.History, HistoryEntry{
		At:     now,
		From:   a.Status,
		To:     to,
		Event:  event,
		Detail: detail,
	})
	a.Status = to
	a.UpdatedAt = now
	return nil
}

// progress floors keyed by completed step. The decision floor applies
// once a terminal decision or risk disposition is recorded.
var stepFloors = map[string]int{
	StepPersonalInfo:     25,
	StepDocuments:        50,
	StepFaceVerification: 75,
	StepDecision:         100,
}

// stepOrder fixes the canonical ordering of the progress trail.
var stepOrder = []string{
	StepPersonalInfo,
	StepDocuments,
	StepFaceVerification,
	StepConsentExchange,
	StepDecision,
}

// CompleteStep marks a step done and recomputes progress. The
// percentage is the highest floor among completed steps and never
// decreases.
func (a *Application) CompleteStep(ctx context.Context, step string) error {
	if a.Status.IsTerminal() {
		return ErrTerminal
	}
	if _, known := stepFloors[step]; !known && step != StepConsentExchange {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown step %q", step)
	}
	if a.Progress.Completed(step) {
		return nil
	}
	a.Progress.CompletedSteps = append(a.Progress.CompletedSteps, step)
	a.recomputeProgress()
	a.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (a *Application) recomputeProgress() {
	percent := a.Progress.Percent
	for _, step := range a.Progress.CompletedSteps {
		if floor := stepFloors[step]; floor > percent {
			percent = floor
		}
	}
	a.Progress.Percent = percent
	a.Progress.CurrentStep = a.nextStep()
}

func (a *Application) nextStep() string {
	for _, step := range stepOrder {
		if step == StepConsentExchange && !a.Method.RequiresConsent() {
			continue
		}
		if !a.Progress.Completed(step) {
			return step
		}
	}
	return ""
}
