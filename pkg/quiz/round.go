package quiz

import (
	"errors"
	"fmt"

	"winequiz/models"
	"winequiz/pkg/label"
)

// Phase is the round lifecycle state. Transitions only move forward:
// hints → matched → built → guessing → scored.
type Phase string

const (
	PhaseHints    Phase = "hints"
	PhaseMatched  Phase = "matched"
	PhaseBuilt    Phase = "built"
	PhaseGuessing Phase = "guessing"
	PhaseScored   Phase = "scored"
)

// ErrRoundFrozen is returned when mutating a round after scoring.
var ErrRoundFrozen = errors.New("round already scored")

// Round models one play explicitly so illegal states (scored before built,
// guesses after freeze) are rejected instead of silently accepted.
type Round struct {
	Hints     label.Hints
	Wine      *models.Wine // nil = no candidate, a valid first-class outcome
	Questions []Question
	Guess     Guess
	Result    *Result

	phase Phase
}

// NewRound starts a round from extracted hints.
func NewRound(hints label.Hints) *Round {
	return &Round{Hints: hints, phase: PhaseHints}
}

// Rehydrate rebuilds a round from persisted state so the same transition
// rules apply to stored rounds. The phase must be a known value.
func Rehydrate(phase Phase, hints label.Hints, wine *models.Wine, qs []Question, g Guess) (*Round, error) {
	switch phase {
	case PhaseHints, PhaseMatched, PhaseBuilt, PhaseGuessing, PhaseScored:
	default:
		return nil, fmt.Errorf("unknown round phase %q", phase)
	}
	return &Round{Hints: hints, Wine: wine, Questions: qs, Guess: g, phase: phase}, nil
}

// Phase reports the current lifecycle state.
func (r *Round) Phase() Phase { return r.phase }

// AttachCandidate records the matcher outcome. A nil wine is the no-match
// case and still advances the round.
func (r *Round) AttachCandidate(wine *models.Wine) error {
	if r.phase != PhaseHints {
		return fmt.Errorf("attach candidate in phase %s", r.phase)
	}
	r.Wine = wine
	r.phase = PhaseMatched
	return nil
}

// SetQuestions installs the built question set. Questions are immutable for
// the rest of the round.
func (r *Round) SetQuestions(qs []Question) error {
	if r.phase != PhaseMatched {
		return fmt.Errorf("set questions in phase %s", r.phase)
	}
	if len(qs) == 0 {
		return errors.New("empty question set")
	}
	r.Questions = qs
	r.phase = PhaseBuilt
	return nil
}

// SetGuess records one attribute guess. Guesses stay mutable until Finalize.
func (r *Round) SetGuess(attr Attribute, value string) error {
	switch r.phase {
	case PhaseBuilt, PhaseGuessing:
	case PhaseScored:
		return ErrRoundFrozen
	default:
		return fmt.Errorf("guess in phase %s", r.phase)
	}
	if !r.Guess.Set(attr, value) {
		return fmt.Errorf("unknown attribute %q", attr)
	}
	r.phase = PhaseGuessing
	return nil
}

// Finalize freezes the guesses and scores the round. Further mutation is
// rejected; Finalize itself is idempotent on the stored result.
func (r *Round) Finalize() (Result, error) {
	switch r.phase {
	case PhaseBuilt, PhaseGuessing:
	case PhaseScored:
		if r.Result == nil { // rehydrated round: recompute from frozen guesses
			res := Score(r.Guess, TruthFrom(r.Wine, r.Hints))
			r.Result = &res
		}
		return *r.Result, ErrRoundFrozen
	default:
		return Result{}, fmt.Errorf("score in phase %s", r.phase)
	}
	res := Score(r.Guess, TruthFrom(r.Wine, r.Hints))
	r.Result = &res
	r.phase = PhaseScored
	return res, nil
}
