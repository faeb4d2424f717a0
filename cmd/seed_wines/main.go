package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"winequiz/models"
	"winequiz/pkg/label"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Imports a wine catalog from CSV. Expected columns:
// display_name,country,region,appellation,variety,vintage
// Empty vintage means non-vintage. Existing display names are skipped
// (or updated with --update).
func main() {
	fileFlag := flag.String("file", "wines.csv", "CSV file to import")
	update := flag.Bool("update", false, "Update existing rows instead of skipping them")
	dryRun := flag.Bool("dry-run", false, "Parse and validate only; no DB writes")
	flag.Parse()

	f, err := os.Open(*fileFlag)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *fileFlag, err)
	}
	defer f.Close()

	var db *gorm.DB
	if !*dryRun {
		dsn := os.Getenv("DB_DSN")
		if strings.TrimSpace(dsn) == "" {
			log.Fatal("DB_DSN not set in environment")
		}
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open db: %v", err)
		}
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6
	line := 0
	created, updated, skipped := 0, 0, 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("line %d: %v", line, err)
			continue
		}
		if line == 1 && strings.EqualFold(rec[0], "display_name") {
			continue // header
		}
		w, err := parseRow(rec)
		if err != nil {
			log.Printf("line %d: %v", line, err)
			continue
		}
		if *dryRun {
			log.Printf("OK %s (%s / %s / %s)", w.DisplayName, w.Country, w.Region, w.Variety)
			continue
		}
		var existing models.Wine
		if err := db.Where("display_name = ?", w.DisplayName).First(&existing).Error; err == nil {
			if !*update {
				skipped++
				continue
			}
			w.ID = existing.ID
			if err := db.Save(&w).Error; err != nil {
				log.Printf("line %d: update %s failed: %v", line, w.DisplayName, err)
				continue
			}
			updated++
			continue
		}
		if err := db.Create(&w).Error; err != nil {
			log.Printf("line %d: create %s failed: %v", line, w.DisplayName, err)
			continue
		}
		created++
	}
	log.Printf("done: created=%d updated=%d skipped=%d", created, updated, skipped)
}

func parseRow(rec []string) (models.Wine, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	w := models.Wine{
		DisplayName: rec[0],
		Country:     rec[1],
		Region:      rec[2],
		Appellation: rec[3],
		Variety:     rec[4],
	}
	if w.DisplayName == "" {
		return w, errors.New("display_name must not be empty")
	}
	if rec[5] != "" {
		y, err := strconv.Atoi(rec[5])
		if err != nil {
			return w, err
		}
		w.Vintage = &y
	}
	w.World = label.WorldFor(w.Country)
	return w, nil
}
