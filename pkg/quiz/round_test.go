package quiz

import (
	"errors"
	"testing"

	"winequiz/pkg/label"
)

func TestRoundHappyPath(t *testing.T) {
	r := NewRound(label.Hints{})
	if err := r.AttachCandidate(bordeauxWine); err != nil {
		t.Fatalf("attach: %v", err)
	}
	qs := []Question{{Attribute: AttrWorld, Options: []string{label.OldWorld, label.NewWorld}, CorrectIndex: 0}}
	if err := r.SetQuestions(qs); err != nil {
		t.Fatalf("set questions: %v", err)
	}
	if err := r.SetGuess(AttrWorld, label.OldWorld); err != nil {
		t.Fatalf("guess: %v", err)
	}
	res, err := r.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("expected 1 point got %d", res.Score)
	}
	if r.Phase() != PhaseScored {
		t.Fatalf("expected scored phase got %s", r.Phase())
	}
}

func TestRoundScoreBeforeBuildRejected(t *testing.T) {
	r := NewRound(label.Hints{})
	if _, err := r.Finalize(); err == nil {
		t.Fatalf("scoring an unbuilt round must fail")
	}
	if err := r.SetGuess(AttrWorld, label.OldWorld); err == nil {
		t.Fatalf("guessing before questions exist must fail")
	}
}

func TestRoundFrozenAfterScore(t *testing.T) {
	r := NewRound(label.Hints{})
	_ = r.AttachCandidate(nil) // no-match is a valid outcome
	_ = r.SetQuestions([]Question{{Attribute: AttrVintage, Options: []string{"NV", "2024"}, CorrectIndex: -1}})
	if _, err := r.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := r.SetGuess(AttrVintage, "NV"); !errors.Is(err, ErrRoundFrozen) {
		t.Fatalf("expected ErrRoundFrozen got %v", err)
	}
	// Finalize is idempotent on the stored result.
	res, err := r.Finalize()
	if !errors.Is(err, ErrRoundFrozen) || res.Max != 5 {
		t.Fatalf("re-finalize: res=%+v err=%v", res, err)
	}
}

func TestRoundEmptyQuestionsRejected(t *testing.T) {
	r := NewRound(label.Hints{})
	_ = r.AttachCandidate(nil)
	if err := r.SetQuestions(nil); err == nil {
		t.Fatalf("empty question set must be rejected")
	}
}
