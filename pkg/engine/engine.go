package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"winequiz/models"
	"winequiz/pkg/catalog"
	"winequiz/pkg/label"
	"winequiz/pkg/quiz"
)

// ErrRoundNotFound is returned for unknown round tokens.
var ErrRoundNotFound = errors.New("round not found")

// ErrRoundForbidden is returned when a caller tries to mutate or score a
// round owned by someone else. Viewing via share link stays open.
var ErrRoundForbidden = errors.New("round belongs to another user")

// OCRClient is the external vision collaborator: photo in, raw text out.
type OCRClient interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Engine runs the round pipeline: OCR text → hints → candidate → questions,
// and drives guess/score transitions on persisted rounds. One instance is
// shared by the HTTP handlers and the ingestion tooling so the heuristics
// exist exactly once.
type Engine struct {
	DB        *gorm.DB
	Vision    OCRClient
	Matcher   *catalog.Matcher
	Builder   *quiz.Builder
	ShareBase string // prefix for share URLs, e.g. "https://play.example.com/games/"
}

// New wires an engine over a database handle and a vision client with a
// time-seeded shuffle source.
func New(db *gorm.DB, ocr OCRClient, shareBase string) *Engine {
	m := &catalog.Matcher{DB: db, Timeout: 5 * time.Second}
	return &Engine{
		DB:      db,
		Vision:  ocr,
		Matcher: m,
		Builder: &quiz.Builder{
			Pools:         m,
			Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
			LookupTimeout: 3 * time.Second,
		},
		ShareBase: shareBase,
	}
}

// RoundResult is what one played round returns to the caller: everything the
// UI needs to present the quiz.
type RoundResult struct {
	Matched     bool            `json:"matched"`
	MatchFailed bool            `json:"match_failed"` // catalog was unreachable; degrade to manual pick
	OCRText     string          `json:"ocr_text"`
	Hints       label.Hints     `json:"hints"`
	Wine        *models.Wine    `json:"wine,omitempty"`
	Questions   []quiz.Question `json:"questions"`
	GameID      string          `json:"game_id"`
	ShareURL    string          `json:"share_url,omitempty"`
}

// PlayImage runs a stored label photo through the vision service and then
// the text pipeline. Vision failures are surfaced (user-visible, retryable).
func (e *Engine) PlayImage(ctx context.Context, path string, userID uint) (*RoundResult, error) {
	text, err := e.Vision.Recognize(ctx, path)
	if err != nil {
		return nil, err
	}
	return e.PlayText(ctx, text, userID)
}

// PlayText runs already-extracted OCR text (upload or paste flow) through
// hint extraction, candidate matching and question building, and persists the
// resulting round. A broken catalog degrades to an unmatched round instead of
// failing; the result flags it so the UI can offer manual-pick mode.
func (e *Engine) PlayText(ctx context.Context, text string, userID uint) (*RoundResult, error) {
	hints := label.ExtractHints(text)
	round := quiz.NewRound(hints)

	wine, err := e.Matcher.Match(ctx, text, hints)
	matchFailed := false
	if err != nil {
		if !errors.Is(err, catalog.ErrUnavailable) {
			return nil, err
		}
		log.Printf("candidate match degraded: %v (text=%q)", err, snippet(text, 120))
		matchFailed = true
		wine = nil
	}
	if err := round.AttachCandidate(wine); err != nil {
		return nil, err
	}
	qs := e.Builder.Build(ctx, wine, hints)
	if err := round.SetQuestions(qs); err != nil {
		return nil, err
	}

	rec, err := e.saveRound(ctx, userID, text, round)
	if err != nil {
		return nil, err
	}
	res := &RoundResult{
		Matched:     wine != nil,
		MatchFailed: matchFailed,
		OCRText:     text,
		Hints:       hints,
		Wine:        wine,
		Questions:   qs,
		GameID:      rec.Token,
	}
	if e.ShareBase != "" {
		res.ShareURL = e.ShareBase + rec.Token
	}
	return res, nil
}

func (e *Engine) saveRound(ctx context.Context, userID uint, text string, round *quiz.Round) (*models.GameRound, error) {
	hintsJSON, err := json.Marshal(round.Hints)
	if err != nil {
		return nil, err
	}
	qsJSON, err := json.Marshal(round.Questions)
	if err != nil {
		return nil, err
	}
	rec := &models.GameRound{
		Token:     uuid.NewString(),
		UserID:    userID,
		OCRText:   text,
		Hints:     string(hintsJSON),
		Questions: string(qsJSON),
		Guesses:   "{}",
		Phase:     string(round.Phase()),
	}
	if round.Wine != nil {
		id := round.Wine.ID
		rec.WineID = &id
	}
	if err := e.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("save round: %w", err)
	}
	return rec, nil
}

// SubmitGuess records one attribute guess on a stored round. Only the owning
// user may guess; the round's state machine rejects guesses on frozen or
// unbuilt rounds.
func (e *Engine) SubmitGuess(ctx context.Context, token string, userID uint, attr quiz.Attribute, value string) error {
	rec, round, err := e.loadRound(ctx, token)
	if err != nil {
		return err
	}
	if rec.UserID != userID {
		return ErrRoundForbidden
	}
	if err := round.SetGuess(attr, value); err != nil {
		return err
	}
	guessJSON, err := json.Marshal(round.Guess)
	if err != nil {
		return err
	}
	rec.Guesses = string(guessJSON)
	rec.Phase = string(round.Phase())
	if err := e.DB.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("save guess: %w", err)
	}
	return nil
}

// ScoreRound freezes the round, scores it and persists the result. Only the
// owning user may score; calling it again returns the stored result with
// quiz.ErrRoundFrozen.
func (e *Engine) ScoreRound(ctx context.Context, token string, userID uint) (*models.GameRound, quiz.Result, error) {
	rec, round, err := e.loadRound(ctx, token)
	if err != nil {
		return nil, quiz.Result{}, err
	}
	if rec.UserID != userID {
		return nil, quiz.Result{}, ErrRoundForbidden
	}
	res, err := round.Finalize()
	if err != nil {
		return rec, res, err
	}
	rec.Score = &res.Score
	rec.MaxScore = &res.Max
	rec.Phase = string(round.Phase())
	if err := e.DB.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, quiz.Result{}, fmt.Errorf("save score: %w", err)
	}
	return rec, res, nil
}

// GetRound loads a stored round (share-link view).
func (e *Engine) GetRound(ctx context.Context, token string) (*models.GameRound, *quiz.Round, error) {
	return e.loadRound(ctx, token)
}

func (e *Engine) loadRound(ctx context.Context, token string) (*models.GameRound, *quiz.Round, error) {
	var rec models.GameRound
	err := e.DB.WithContext(ctx).Preload("Wine").Where("token = ?", token).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load round: %w", err)
	}

	var hints label.Hints
	if rec.Hints != "" {
		if err := json.Unmarshal([]byte(rec.Hints), &hints); err != nil {
			return nil, nil, fmt.Errorf("round %s: bad hints blob: %w", token, err)
		}
	}
	var qs []quiz.Question
	if rec.Questions != "" {
		if err := json.Unmarshal([]byte(rec.Questions), &qs); err != nil {
			return nil, nil, fmt.Errorf("round %s: bad questions blob: %w", token, err)
		}
	}
	var g quiz.Guess
	if rec.Guesses != "" {
		if err := json.Unmarshal([]byte(rec.Guesses), &g); err != nil {
			return nil, nil, fmt.Errorf("round %s: bad guesses blob: %w", token, err)
		}
	}
	round, err := quiz.Rehydrate(quiz.Phase(rec.Phase), hints, rec.Wine, qs, g)
	if err != nil {
		return nil, nil, err
	}
	return &rec, round, nil
}

// snippet returns a shortened version of text for logging.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
