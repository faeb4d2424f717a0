package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"winequiz/models"
)

// awardPoints records one points ledger entry for a scored round and returns
// whether a new entry was created plus the user's running total. The unique
// index on round_id makes a replayed score call a no-op.
func awardPoints(userID, roundID uint, score, max int) (bool, int64) {
	entry := models.PointsEntry{UserID: userID, RoundID: roundID, Points: score, MaxPoints: max}
	awarded := true
	if err := db.Create(&entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			awarded = false
		} else {
			log.Printf("points entry for round %d failed: %v", roundID, err)
			awarded = false
		}
	}
	var total int64
	if err := db.Model(&models.PointsEntry{}).Where("user_id = ?", userID).Select("COALESCE(SUM(points),0)").Scan(&total).Error; err != nil {
		log.Printf("points total for user %d failed: %v", userID, err)
	}
	if awarded {
		notifyPointsService(userID, score, max)
	}
	return awarded, total
}

// notifyPointsService posts the award to an external points service when
// POINTS_URL is set. Best effort: failures are logged, never surfaced.
func notifyPointsService(userID uint, score, max int) {
	url := os.Getenv("POINTS_URL")
	if url == "" {
		return
	}
	body, _ := json.Marshal(map[string]interface{}{
		"user_id":   userID,
		"score":     score,
		"max_score": max,
	})
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("points notify failed: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("points notify returned status %d", resp.StatusCode)
	}
}
