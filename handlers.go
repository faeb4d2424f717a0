package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"winequiz/models"
	"winequiz/pkg/engine"
	"winequiz/pkg/quiz"
	"winequiz/pkg/vision"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/ocr", ocrHandler)
	authGroup.POST("/uploads", uploadLabelHandler)
	authGroup.GET("/games/:id", getGameHandler)
	authGroup.POST("/games/:id/guess", guessHandler)
	authGroup.POST("/games/:id/score", scoreHandler)
	authGroup.GET("/wines/countries", countriesHandler)
	authGroup.GET("/wines/regions", regionsHandler)
	authGroup.GET("/wines/subregions", subregionsHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	uname := unameVal.(string)
	var user models.User
	if err := db.Where("username = ?", uname).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	// Resolve role name from RoleID (we only store role_id).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString})
}

// ocrHandler starts a round from either raw label text or a previously stored
// photo. Text takes precedence when both are supplied.
func ocrHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		OCRText   string `json:"ocr_text"`
		StorePath string `json:"store_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OCRText == "" && req.StorePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ocr_text or store_path required"})
		return
	}

	var (
		res *engine.RoundResult
		err error
	)
	if req.OCRText != "" {
		res, err = eng.PlayText(c.Request.Context(), req.OCRText, user.ID)
	} else {
		path := req.StorePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(uploadBaseDir(), path)
		}
		if _, serr := os.Stat(path); serr != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "stored file not found"})
			return
		}
		res, err = eng.PlayImage(c.Request.Context(), path, user.ID)
	}
	if err != nil {
		if errors.Is(err, vision.ErrNoText) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no text recognized on label"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// uploadLabelHandler stores a label photo and immediately runs it through the
// round pipeline. A vision miss (no text) keeps the upload record with a
// failure reason instead of rejecting the request, so it can be retried.
func uploadLabelHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	ct := file.Header.Get("Content-Type")
	baseDir := uploadBaseDir()
	relPath := filepath.Join("labels", filepath.Base(file.Filename))
	fullPath := filepath.Join(baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	// Re-uploading the same filename replays the stored record instead of
	// creating a duplicate.
	var up models.LabelUpload
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, file.Filename).First(&up).Error; err != nil {
		up = models.LabelUpload{UserID: user.ID, FileName: file.Filename, StorePath: relPath, ContentType: ct}
		if err := db.Create(&up).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
			return
		}
	}

	res, err := eng.PlayImage(c.Request.Context(), fullPath, user.ID)
	if err != nil {
		up.Failed = true
		if errors.Is(err, vision.ErrNoText) {
			up.FailedReason = "no text recognized"
		} else {
			up.FailedReason = err.Error()
		}
		db.Save(&up)
		c.JSON(http.StatusOK, gin.H{"id": up.ID, "store_path": up.StorePath, "failed": true, "failed_reason": up.FailedReason})
		return
	}

	var rid models.GameRound
	if err := db.Where("token = ?", res.GameID).First(&rid).Error; err == nil {
		up.RoundID = &rid.ID
	}
	up.Failed = false
	up.FailedReason = ""
	db.Save(&up)
	c.JSON(http.StatusOK, gin.H{"id": up.ID, "store_path": up.StorePath, "round": res})
}

func getGameHandler(c *gin.Context) {
	rec, round, err := eng.GetRound(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, engine.ErrRoundNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"game_id":   rec.Token,
		"phase":     rec.Phase,
		"ocr_text":  rec.OCRText,
		"hints":     round.Hints,
		"questions": round.Questions,
		"guesses":   round.Guess,
	}
	if rec.Wine != nil {
		resp["wine"] = rec.Wine
	}
	if rec.Score != nil {
		resp["score"] = *rec.Score
		resp["max_score"] = *rec.MaxScore
	}
	c.JSON(http.StatusOK, resp)
}

func guessHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Attribute string `json:"attribute" binding:"required"`
		Value     string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := eng.SubmitGuess(c.Request.Context(), c.Param("id"), user.ID, quiz.Attribute(strings.ToLower(req.Attribute)), req.Value)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrRoundNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		case errors.Is(err, engine.ErrRoundForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your game"})
		case errors.Is(err, quiz.ErrRoundFrozen):
			c.JSON(http.StatusConflict, gin.H{"error": "game already scored"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func scoreHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	rec, res, err := eng.ScoreRound(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrRoundNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		case errors.Is(err, engine.ErrRoundForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your game"})
		case errors.Is(err, quiz.ErrRoundFrozen):
			// Already scored: return the stored result, award nothing.
			c.JSON(http.StatusOK, gin.H{"ok": true, "score": res.Score, "max": res.Max, "points_awarded": false})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	awarded, total := awardPoints(user.ID, rec.ID, res.Score, res.Max)
	c.JSON(http.StatusOK, gin.H{"ok": true, "score": res.Score, "max": res.Max, "points_awarded": awarded, "total_points": total})
}

func countriesHandler(c *gin.Context) {
	items, err := eng.Matcher.Countries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func regionsHandler(c *gin.Context) {
	items, err := eng.Matcher.Regions(c.Request.Context(), c.Query("country"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func subregionsHandler(c *gin.Context) {
	items, err := eng.Matcher.Subregions(c.Request.Context(), c.Query("country"), c.Query("region"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}
