package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tutoria/auth/internal/middleware"
	"tutoria/auth/internal/models"
	"tutoria/auth/internal/repository"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	filter := repository.ListFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}

	page, err := h.userService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, page)
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_role"})
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		h.writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h HandlerSet) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, ok := models.ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
		return
	}

	user, err := h.userService.ChangeStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.writeUserError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateProfileRequest struct {
	Phone *string `json:"phone"`
	Bio   *string `json:"bio"`
}

func (h HandlerSet) UpdateMyProfile(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), claims.Subject, req.Phone, req.Bio)
	if err != nil {
		h.writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h HandlerSet) DeleteMyAccount(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), claims.Subject); err != nil {
		h.writeUserError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) UserStats(c *gin.Context) {
	report, err := h.userService.UserStats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("user stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h HandlerSet) RoleStats(c *gin.Context) {
	report, err := h.userService.RoleStats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("role stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h HandlerSet) writeUserError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}
	h.log.Error().Err(err).Msg("user operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
