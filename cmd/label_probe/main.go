package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"winequiz/pkg/catalog"
	"winequiz/pkg/label"
	"winequiz/pkg/vision"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Runs a single label (photo or pasted text) through the recognition
// pipeline and prints what each stage produced. Useful for debugging why a
// label does or does not match.
func main() {
	textFlag := flag.String("text", "", "Raw label text (skips the vision call)")
	noMatch := flag.Bool("no-match", false, "Stop after hint extraction (no DB needed)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text := *textFlag
	if text == "" {
		if flag.NArg() < 1 {
			fmt.Println("usage: label_probe [--text \"...\"] [--no-match] <image-path>")
			os.Exit(2)
		}
		var err error
		text, err = vision.NewClientFromEnv().Recognize(ctx, flag.Arg(0))
		if err != nil {
			log.Fatalf("vision failed: %v", err)
		}
		fmt.Printf("text: %q\n", text)
	}

	hints := label.ExtractHints(text)
	dump("hints", hints)
	if *noMatch {
		return
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment (or pass --no-match)")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	m := &catalog.Matcher{DB: db}
	fmt.Printf("tokens: %v\n", catalog.SearchTokens(text))
	wine, err := m.Match(ctx, text, hints)
	if err != nil {
		log.Fatalf("match failed: %v", err)
	}
	if wine == nil {
		fmt.Println("no candidate matched")
		return
	}
	dump("candidate", wine)
}

func dump(name string, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Printf("%s: %s\n", name, b)
}
