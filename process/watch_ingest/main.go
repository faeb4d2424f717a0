package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"winequiz/models"
	"winequiz/pkg/engine"
	"winequiz/pkg/vision"
)

// Global DB handle for helper funcs
var db *gorm.DB

var eng *engine.Engine

// global flags (parsed in main)
var verbose bool

// MIME mapping to avoid opening files repeatedly
var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ingestState caches existing upload rows so rescans stay idempotent without
// a query per file.
type ingestState struct {
	uploadsByFile map[string]*models.LabelUpload
	mu            sync.RWMutex
}

func newIngestState() *ingestState {
	return &ingestState{uploadsByFile: make(map[string]*models.LabelUpload, 1024)}
}

func (s *ingestState) get(name string) (*models.LabelUpload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploadsByFile[name]
	return u, ok
}

func (s *ingestState) put(u *models.LabelUpload) {
	s.mu.Lock()
	s.uploadsByFile[u.FileName] = u
	s.mu.Unlock()
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a directory of label photos, creates LabelUpload rows and plays
// a round for each through the engine, optional watch mode.
func main() {
	dirFlag := flag.String("dir", "uploads/labels", "directory to scan for label photos")
	userID := flag.Uint("user-id", 0, "User ID to assign rounds to (if omitted uses the admin user)")
	dryRun := flag.Bool("dry-run", false, "Skip all DB/vision calls; just list candidate files")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	if *dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		files := listImageFiles(*dirFlag)
		log.Printf("Found %d candidate files", len(files))
		for _, f := range files {
			logV("candidate %s", f)
		}
		return
	}

	db = mustInitDBFromEnv()
	eng = engine.New(db, vision.NewClientFromEnv(), "")
	user := resolveUser(*userID)
	st := preloadUploads(user)
	log.Printf("Preloaded: uploads=%d", len(st.uploadsByFile))

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, user, st, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, user, st, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// preloadUploads fetches existing upload rows to minimize per-file queries.
func preloadUploads(user models.User) *ingestState {
	st := newIngestState()
	var ups []models.LabelUpload
	if err := db.Where("user_id = ?", user.ID).Find(&ups).Error; err == nil {
		for i := range ups {
			u := ups[i]
			st.uploadsByFile[u.FileName] = &u
		}
	}
	return st
}

// resolveUser finds the owning user either by explicit id or by admin username.
func resolveUser(id uint) models.User {
	var u models.User
	if id != 0 {
		if err := db.First(&u, id).Error; err != nil {
			log.Fatalf("failed to find user id %d: %v", id, err)
		}
		return u
	}
	if err := db.Where("username = ?", "admin").First(&u).Error; err != nil {
		log.Fatalf("no --user-id provided and admin user not found: %v", err)
	}
	return u
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func watchDirectory(dir string, user models.User, st *ingestState, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	// Use worker pool for watch events too
	go runWorkerPool(dir, user, st, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

func isSupportedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := extMime[ext]
	return ok
}

// worker pool orchestrator
func runWorkerPool(dir string, user models.User, st *ingestState, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, user, st)
			}
		}()
	}
	// feed initial
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		// also relay from extra channels if provided
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile creates the LabelUpload row (if missing) and plays a
// round for it. Files that already produced a round are skipped so rescans
// and watch restarts stay idempotent.
func processSingleFile(dir, name string, user models.User, st *ingestState) {
	storePath := filepath.ToSlash(filepath.Join("labels", name))
	filePath := filepath.Join(dir, name)

	up, exists := st.get(name)
	if exists && up.RoundID != nil {
		logV("SKIP already played %s", name)
		return
	}
	if exists && up.Failed {
		logV("RETRY previously failed %s (%s)", name, up.FailedReason)
	}

	if !exists {
		newUp := models.LabelUpload{UserID: user.ID, FileName: name, StorePath: storePath, ContentType: extMime[strings.ToLower(filepath.Ext(name))]}
		if err := db.Create(&newUp).Error; err != nil {
			// race: someone else created
			if err2 := db.Where("user_id = ? AND file_name = ?", user.ID, name).First(&newUp).Error; err2 != nil {
				log.Printf("ERROR create upload %s: %v", name, err)
				return
			}
		}
		st.put(&newUp)
		up = &newUp
		log.Printf("NEW upload id=%d file=%s", newUp.ID, name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	res, err := eng.PlayImage(ctx, filePath, user.ID)
	if err != nil {
		up.Failed = true
		up.FailedReason = err.Error()
		if err2 := db.Save(up).Error; err2 != nil {
			log.Printf("ERROR save failure for %s: %v", name, err2)
		}
		log.Printf("FAIL %s: %v", name, err)
		return
	}

	var rec models.GameRound
	if err := db.Where("token = ?", res.GameID).First(&rec).Error; err == nil {
		up.RoundID = &rec.ID
	}
	up.Failed = false
	up.FailedReason = ""
	if err := db.Save(up).Error; err != nil {
		log.Printf("ERROR link round for %s: %v", name, err)
		return
	}
	log.Printf("PLAYED %s game=%s matched=%v", name, res.GameID, res.Matched)
}
