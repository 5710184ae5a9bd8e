package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jobtrackhq/jobtrack/internal/model"
	"github.com/jobtrackhq/jobtrack/internal/repository"
)

type jobReq struct {
	CompanyID uint64     `json:"company_id"`
	Title     string     `json:"title"`
	Stage     string     `json:"stage"`
	Notes     string     `json:"notes"`
	AppliedAt *time.Time `json:"applied_at"`
}

// CreateJob handles POST /v1/jobs.  The referenced company must exist and
// belong to the caller; a job cannot point at someone else's company.
func (h *ResourceHandler) CreateJob(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	var body jobReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "title is required"})
	}
	stage := body.Stage
	if stage == "" {
		stage = model.StageApplied
	}
	if !model.ValidStage(stage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "unknown stage"})
	}
	if !canModify(id.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "read-only role"})
	}
	company, err := h.Companies.GetByID(c.Request().Context(), body.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "unknown company_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if company.UserID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "company belongs to another user"})
	}
	job := &model.Job{
		UserID:    id.UserID,
		CompanyID: body.CompanyID,
		Title:     title,
		Stage:     stage,
		Notes:     body.Notes,
		AppliedAt: body.AppliedAt,
	}
	if err := h.Jobs.Create(c.Request().Context(), job); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "could not create job"})
	}
	return c.JSON(http.StatusCreated, job)
}

// ListJobs handles GET /v1/jobs with an optional ?stage= filter; admins may
// additionally pass ?user_id=.
func (h *ResourceHandler) ListJobs(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	owner, ok := targetUserID(c, id)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "user_id filter requires admin"})
	}
	stage := c.QueryParam("stage")
	if stage != "" && !model.ValidStage(stage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "unknown stage"})
	}
	items, err := h.Jobs.ListByUser(c.Request().Context(), owner, stage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetJob handles GET /v1/jobs/:id.
func (h *ResourceHandler) GetJob(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	job, err := h.Jobs.GetByID(c.Request().Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "job not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if !canRead(job.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	}
	return c.JSON(http.StatusOK, job)
}

// UpdateJob handles PUT /v1/jobs/:id.
func (h *ResourceHandler) UpdateJob(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	var body jobReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "title is required"})
	}
	if body.Stage != "" && !model.ValidStage(body.Stage) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "unknown stage"})
	}
	job, err := h.Jobs.GetByID(c.Request().Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "job not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if !canModify(job.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	}
	if body.CompanyID != 0 && body.CompanyID != job.CompanyID {
		company, err := h.Companies.GetByID(c.Request().Context(), body.CompanyID)
		if err != nil {
			if errors.Is(err, repository.ErrCompanyNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "unknown company_id"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
		}
		if company.UserID != id.UserID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "company belongs to another user"})
		}
		job.CompanyID = body.CompanyID
	}
	job.Title = title
	if body.Stage != "" {
		job.Stage = body.Stage
	}
	job.Notes = body.Notes
	if body.AppliedAt != nil {
		job.AppliedAt = body.AppliedAt
	}
	if err := h.Jobs.Update(c.Request().Context(), job); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "update failed"})
	}
	return c.JSON(http.StatusOK, job)
}

// DeleteJob handles DELETE /v1/jobs/:id.
func (h *ResourceHandler) DeleteJob(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	job, err := h.Jobs.GetByID(c.Request().Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "job not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if !canModify(job.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	}
	if err := h.Jobs.Delete(c.Request().Context(), jobID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "job deleted"})
}
