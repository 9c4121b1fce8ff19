package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tero/internal/directory"
	"tero/internal/matching"
	"tero/internal/models"
)

// Handler serves the matching API.
type Handler struct {
	coordinator    *MatchCoordinator
	processor      *AssessmentProcessor
	directory      *directory.Directory
	scorer         *matching.Scorer
	requestTimeout time.Duration
	log            zerolog.Logger
}

// NewHandler creates the API handler
func NewHandler(
	coordinator *MatchCoordinator,
	processor *AssessmentProcessor,
	dir *directory.Directory,
	scorer *matching.Scorer,
	requestTimeout time.Duration,
	log zerolog.Logger,
) *Handler {
	if requestTimeout == 0 {
		requestTimeout = 60 * time.Second
	}
	return &Handler{
		coordinator:    coordinator,
		processor:      processor,
		directory:      dir,
		scorer:         scorer,
		requestTimeout: requestTimeout,
		log:            log,
	}
}

// NewRouter builds the gin engine with recovery, request logging and the API routes.
func NewRouter(h *Handler, log zerolog.Logger, maxBodyBytes int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	router.Use(BodyLimit(maxBodyBytes))

	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers the API routes
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)

		v1.GET("/hospitals", h.ListHospitals)
		v1.GET("/hospitals/:id", h.GetHospital)
		v1.PUT("/hospitals/:id", h.PutHospital)
		v1.PUT("/hospitals/:id/capacity", h.UpdateCapacity)

		v1.GET("/cities", h.ListCities)

		v1.POST("/match", h.Match)
		v1.POST("/match/notes", h.MatchNotes)
		v1.POST("/rank", h.Rank)
	}
}

// Health provides a basic health check endpoint
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListHospitals lists the directory, optionally relative to ?lat=&lng=.
func (h *Handler) ListHospitals(c *gin.Context) {
	q := directory.Query{City: c.Query("city")}

	lat, lng := c.Query("lat"), c.Query("lng")
	if lat != "" || lng != "" {
		origin, err := parseOrigin(lat, lng)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q.Origin = origin
	}
	if raw := c.Query("max_km"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil || km < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_km must be a non-negative number"})
			return
		}
		q.MaxDistanceKm = km
	}

	ctx, cancel := h.context(c)
	defer cancel()

	hospitals, err := h.directory.Candidates(ctx, q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if hospitals == nil {
		hospitals = []models.Hospital{}
	}
	c.JSON(http.StatusOK, gin.H{"hospitals": hospitals, "count": len(hospitals)})
}

// GetHospital returns one hospital by id.
func (h *Handler) GetHospital(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	hospital, err := h.directory.Store().Get(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hospital)
}

// PutHospital creates or replaces a directory record. The id in the path wins
// over any id in the body.
func (h *Handler) PutHospital(c *gin.Context) {
	var hospital models.Hospital
	if err := c.ShouldBindJSON(&hospital); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	hospital.ID = c.Param("id")

	ctx, cancel := h.context(c)
	defer cancel()

	store := h.directory.Store()
	if err := store.Upsert(ctx, hospital); err != nil {
		h.respondError(c, err)
		return
	}
	stored, err := store.Get(ctx, hospital.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// ListCities returns the cities present in the directory.
func (h *Handler) ListCities(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	cities, err := h.directory.Store().Cities(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

type capacityRequest struct {
	AvailableBeds *int     `json:"available_beds" binding:"required"`
	WaitTime      *float64 `json:"wait_time"`
}

// UpdateCapacity sets the free beds and, if given, the current wait time.
func (h *Handler) UpdateCapacity(c *gin.Context) {
	var req capacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: available_beds is required"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	id := c.Param("id")
	store := h.directory.Store()

	var waitTime float64
	if req.WaitTime != nil {
		waitTime = *req.WaitTime
	} else {
		current, err := store.Get(ctx, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		waitTime = current.WaitTime
	}

	hospital, err := store.UpdateCapacity(ctx, id, *req.AvailableBeds, waitTime)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hospital)
}

type matchRequest struct {
	models.Assessment
	ReserveBed    bool    `json:"reserve_bed"`
	TopN          int     `json:"top_n"`
	MaxDistanceKm float64 `json:"max_distance_km"`
}

// Match ranks hospitals for a structured assessment.
func (h *Handler) Match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	assessment := req.Assessment
	resp, err := h.coordinator.Match(ctx, &assessment, MatchOptions{
		TopN:          req.TopN,
		MaxDistanceKm: req.MaxDistanceKm,
		ReserveBed:    req.ReserveBed,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type notesRequest struct {
	Notes         string           `json:"notes" binding:"required"`
	Location      *models.Location `json:"location,omitempty"`
	City          string           `json:"city,omitempty"`
	ReserveBed    bool             `json:"reserve_bed"`
	TopN          int              `json:"top_n"`
	MaxDistanceKm float64          `json:"max_distance_km"`
}

// MatchNotes extracts an assessment from free-text notes and matches it.
func (h *Handler) MatchNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: notes are required"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	assessment, err := h.processor.ProcessNotes(ctx, req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	assessment.Location = req.Location
	assessment.City = req.City

	resp, err := h.coordinator.Match(ctx, assessment, MatchOptions{
		TopN:          req.TopN,
		MaxDistanceKm: req.MaxDistanceKm,
		ReserveBed:    req.ReserveBed,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type rankRequest struct {
	Hospitals   []models.Hospital `json:"hospitals" binding:"required"`
	Specialties []string          `json:"specialties"`
	IsCritical  bool              `json:"is_critical"`
}

// Rank scores caller-supplied hospitals without touching the directory.
func (h *Handler) Rank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: hospitals are required"})
		return
	}

	ranked := h.scorer.Rank(req.Hospitals, req.Specialties, req.IsCritical)
	c.JSON(http.StatusOK, gin.H{"results": ranked, "count": len(ranked)})
}

func (h *Handler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, directory.ErrHospitalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, directory.ErrNoBedsAvailable):
		status = http.StatusConflict
	case errors.Is(err, directory.ErrInvalidCapacity),
		errors.Is(err, directory.ErrInvalidHospital),
		errors.Is(err, ErrInvalidAssessment),
		errors.Is(err, ErrEmptyNotes):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func parseOrigin(lat, lng string) (*models.Location, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || la < -90 || la > 90 {
		return nil, errors.New("lat must be a number between -90 and 90")
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil || lo < -180 || lo > 180 {
		return nil, errors.New("lng must be a number between -180 and 180")
	}
	return &models.Location{Latitude: la, Longitude: lo}, nil
}
