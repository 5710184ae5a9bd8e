package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jobtrackhq/jobtrack/internal/model"
	"github.com/jobtrackhq/jobtrack/internal/repository"
)

// ResourceHandler bundles the repositories behind the company and job
// endpoints.  Every read funnels through canRead and every write through
// canModify, so the authorization rules live in exactly one place.
type ResourceHandler struct {
	Companies *repository.CompanyRepo
	Jobs      *repository.JobRepo
}

func NewResourceHandler(companies *repository.CompanyRepo, jobs *repository.JobRepo) *ResourceHandler {
	if companies == nil || jobs == nil {
		panic("nil repository passed to NewResourceHandler")
	}
	return &ResourceHandler{Companies: companies, Jobs: jobs}
}

type companyReq struct {
	Name     string `json:"name"`
	Website  string `json:"website"`
	Location string `json:"location"`
}

// CreateCompany handles POST /v1/companies.
func (h *ResourceHandler) CreateCompany(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	var body companyReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "name is required"})
	}
	// Creation is a mutation of the caller's own collection; admins are
	// read-only and fail this check.
	if !canModify(id.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "read-only role"})
	}
	company := &model.Company{
		UserID:   id.UserID,
		Name:     name,
		Website:  strings.TrimSpace(body.Website),
		Location: strings.TrimSpace(body.Location),
	}
	if err := h.Companies.Create(c.Request().Context(), company); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "could not create company"})
	}
	return c.JSON(http.StatusCreated, company)
}

// ListCompanies handles GET /v1/companies.  Admins may pass ?user_id= to
// inspect another user's companies.
func (h *ResourceHandler) ListCompanies(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	owner, ok := targetUserID(c, id)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "user_id filter requires admin"})
	}
	items, err := h.Companies.ListByUser(c.Request().Context(), owner)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetCompany handles GET /v1/companies/:id.
func (h *ResourceHandler) GetCompany(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	companyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	company, err := h.Companies.GetByID(c.Request().Context(), companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if !canRead(company.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	}
	return c.JSON(http.StatusOK, company)
}

// UpdateCompany handles PUT /v1/companies/:id.
func (h *ResourceHandler) UpdateCompany(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	companyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	var body companyReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "name is required"})
	}
	company, err := h.Companies.GetByID(c.Request().Context(), companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if !canModify(company.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	}
	company.Name = name
	company.Website = strings.TrimSpace(body.Website)
	company.Location = strings.TrimSpace(body.Location)
	if err := h.Companies.Update(c.Request().Context(), company); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "update failed"})
	}
	return c.JSON(http.StatusOK, company)
}

// DeleteCompany handles DELETE /v1/companies/:id.
func (h *ResourceHandler) DeleteCompany(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": "unauthorized"})
	}
	companyID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": "invalid id"})
	}
	company, err := h.Companies.GetByID(c.Request().Context(), companyID)
	if err != nil {
		if errors.Is(err, repository.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "db error"})
	}
	if !canModify(company.UserID, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "access denied"})
	}
	if err := h.Companies.Delete(c.Request().Context(), companyID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "company deleted"})
}
