package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"civic_reporter/internal/middleware"
	"civic_reporter/internal/model"
	"civic_reporter/internal/response"
	"civic_reporter/internal/service"
	"civic_reporter/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IssueHandler handles issue related requests
type IssueHandler struct {
	service service.IssueService
	images  storage.ImageStore
	logger  *zap.Logger
}

// NewIssueHandler creates a new IssueHandler
func NewIssueHandler(s service.IssueService, images storage.ImageStore, logger *zap.Logger) *IssueHandler {
	return &IssueHandler{service: s, images: images, logger: logger}
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.ValidationError(c, "Invalid request: expected a multipart form")
		return
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(c.PostForm("latitude")), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(c.PostForm("longitude")), 64)
	if errLat != nil || errLon != nil {
		response.ValidationError(c, "Please provide a valid latitude and longitude")
		return
	}

	files := imageFiles(form)
	if len(files) > storage.MaxImages {
		response.ValidationError(c, fmt.Sprintf("You can upload a maximum of %d images", storage.MaxImages))
		return
	}
	uploads := make([]model.ImageUpload, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			response.ValidationError(c, fmt.Sprintf("Could not read image %q", fh.Filename))
			return
		}
		uploads = append(uploads, model.ImageUpload{Filename: fh.Filename, Data: data})
	}

	req := model.CreateIssueRequest{
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Location: model.Location{
			Address:   c.PostForm("address"),
			Latitude:  lat,
			Longitude: lon,
		},
		Images: uploads,
	}

	issue, err := h.service.CreateIssue(c.Request.Context(), middleware.CurrentSession(c), req)
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to create issue")
		return
	}
	response.Success(c, http.StatusCreated, "Issue reported successfully", issue)
}

// imageFiles collects uploads sent either as repeated "images" fields or as
// numbered "image_N" fields, in a stable order.
func imageFiles(form *multipart.Form) []*multipart.FileHeader {
	files := append([]*multipart.FileHeader{}, form.File["images"]...)

	var numbered []string
	for key := range form.File {
		if strings.HasPrefix(key, "image_") {
			numbered = append(numbered, key)
		}
	}
	sort.Slice(numbered, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(numbered[i], "image_"))
		b, _ := strconv.Atoi(strings.TrimPrefix(numbered[j], "image_"))
		return a < b
	})
	for _, key := range numbered {
		files = append(files, form.File[key]...)
	}
	return files
}

// readUpload reads at most one byte past the size limit so oversized files
// still fail validation without being buffered whole.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
}

func (h *IssueHandler) GetMyIssues(c *gin.Context) {
	issues, err := h.service.ListForOwner(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to retrieve issues")
		return
	}
	response.Success(c, http.StatusOK, "Issues retrieved", issues)
}

func (h *IssueHandler) GetIssueByID(c *gin.Context) {
	issueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "Invalid issue ID")
		return
	}

	issue, err := h.service.GetIssue(c.Request.Context(), middleware.CurrentSession(c), issueID)
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to retrieve issue")
		return
	}
	response.Success(c, http.StatusOK, "Issue retrieved", issue)
}

func issueFilters(c *gin.Context) model.IssueFilters {
	var filters model.IssueFilters
	if statusParam := strings.TrimSpace(c.Query("status")); statusParam != "" && statusParam != "all" {
		s := model.Status(statusParam)
		filters.Status = &s
	}
	if municipalityParam := strings.TrimSpace(c.Query("municipality")); municipalityParam != "" && municipalityParam != "all" {
		filters.Municipality = &municipalityParam
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filters.Search = &q
	}
	return filters
}

func (h *IssueHandler) GetAllIssues(c *gin.Context) {
	issues, err := h.service.ListAll(c.Request.Context(), middleware.CurrentSession(c), issueFilters(c))
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to retrieve issues")
		return
	}
	response.Success(c, http.StatusOK, "Issues retrieved", issues)
}

func (h *IssueHandler) UpdateIssueStatus(c *gin.Context) {
	issueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "Invalid issue ID")
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request: "+err.Error())
		return
	}

	issue, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentSession(c), issueID, req)
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to update issue status")
		return
	}
	response.Success(c, http.StatusOK, "Issue status updated", issue)
}

func (h *IssueHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to retrieve statistics")
		return
	}
	response.Success(c, http.StatusOK, "Statistics retrieved", stats)
}

func (h *IssueHandler) ExportIssuesCSV(c *gin.Context) {
	csvBuffer, err := h.service.ExportCSV(c.Request.Context(), middleware.CurrentSession(c), issueFilters(c))
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to export issues to CSV")
		return
	}

	fileName := fmt.Sprintf("issues_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv", csvBuffer.Bytes())
}

// GetMunicipalities lists the authorities issues can be routed to.
func (h *IssueHandler) GetMunicipalities(c *gin.Context) {
	response.Success(c, http.StatusOK, "Municipalities retrieved", model.Municipalities)
}

// GetImage serves a stored issue photo.
func (h *IssueHandler) GetImage(c *gin.Context) {
	filePath, err := h.images.Open(c.Param("name"))
	if err != nil {
		response.FromError(c, h.logger, err, "Image not found")
		return
	}
	c.File(filePath)
}

// RegisterIssueRoutes registers issue routes
func (h *IssueHandler) RegisterIssueRoutes(rg *gin.RouterGroup, citizenMW, adminMW, municipalityMW gin.HandlerFunc) {
	rg.GET("/municipalities", h.GetMunicipalities)

	citizenRoutes := rg.Group("/issues")
	citizenRoutes.Use(citizenMW)
	{
		citizenRoutes.POST("", h.CreateIssue)
		citizenRoutes.GET("", h.GetMyIssues)
		citizenRoutes.GET("/:id", h.GetIssueByID) // Service layer handles ownership
	}

	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(adminMW)
	{
		adminRoutes.GET("/issues", h.GetAllIssues)
		adminRoutes.GET("/issues/export/csv", h.ExportIssuesCSV)
		adminRoutes.GET("/issues/:id", h.GetIssueByID)
		adminRoutes.PATCH("/issues/:id/status", h.UpdateIssueStatus)
		adminRoutes.GET("/stats", h.GetStats)
	}

	municipalityRoutes := rg.Group("/municipality")
	municipalityRoutes.Use(municipalityMW)
	{
		municipalityRoutes.GET("/issues", h.GetAllIssues) // Service layer pins the municipality
		municipalityRoutes.GET("/issues/:id", h.GetIssueByID)
		municipalityRoutes.PATCH("/issues/:id/status", h.UpdateIssueStatus)
		municipalityRoutes.GET("/stats", h.GetStats)
	}
}

// RegisterImageRoutes serves stored photos at the paths recorded on issues.
func (h *IssueHandler) RegisterImageRoutes(r gin.IRouter) {
	r.GET(storage.URLPrefix+"/issues/:name", h.GetImage)
}
