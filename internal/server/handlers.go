package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memberhub/backend/internal/members"
	"go.uber.org/zap"
)

var statusByKind = map[members.ErrorKind]int{
	members.KindValidation:     http.StatusBadRequest,
	members.KindConflict:       http.StatusBadRequest,
	members.KindAuthentication: http.StatusUnauthorized,
	members.KindAuthorization:  http.StatusUnauthorized,
	members.KindNotFound:       http.StatusNotFound,
	members.KindProvider:       http.StatusInternalServerError,
	members.KindStore:          http.StatusInternalServerError,
	members.KindUnknown:        http.StatusInternalServerError,
}

var messageByKind = map[members.ErrorKind]string{
	members.KindValidation:     "Invalid request",
	members.KindConflict:       "User already exists",
	members.KindAuthentication: "Authentication required",
	members.KindAuthorization:  "Unauthorized",
	members.KindNotFound:       "User not found",
	members.KindProvider:       "Identity provider error",
	members.KindStore:          "Profile store error",
	members.KindUnknown:        "Internal server error",
}

var internalCodeByKind = map[members.ErrorKind]string{
	members.KindProvider: "provider_error",
	members.KindStore:    "store_error",
	members.KindUnknown:  "internal_error",
}

func statusForKind(kind members.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func messageForKind(kind members.ErrorKind) string {
	if message, ok := messageByKind[kind]; ok {
		return message
	}
	return messageByKind[members.KindUnknown]
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request members.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.respondInvalidBody(c, err)
		return
	}

	member, err := h.members.Register(c.Request.Context(), request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"msg":  "User registered successfully",
		"user": member,
	})
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	users, err := h.members.ListUsers(c.Request.Context(), callerFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":   "Users retrieved successfully",
		"users": users,
	})
}

func (h *httpHandler) handleCreateUser(c *gin.Context) {
	var request members.CreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.respondInvalidBody(c, err)
		return
	}

	member, err := h.members.CreateUser(c.Request.Context(), callerFromContext(c), request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"msg":  "User created successfully",
		"user": member,
	})
}

func (h *httpHandler) handleEditUser(c *gin.Context) {
	uid := c.Param("uid")
	var request members.EditRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.respondInvalidBody(c, err)
		return
	}

	if err := h.members.EditUser(c.Request.Context(), callerFromContext(c), uid, request); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg": "User updated successfully",
		"uid": uid,
	})
}

func (h *httpHandler) handleDeleteUser(c *gin.Context) {
	uid := c.Param("uid")
	if err := h.members.DeleteUser(c.Request.Context(), callerFromContext(c), uid); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg": "User deleted successfully",
		"uid": uid,
	})
}

func (h *httpHandler) respondInvalidBody(c *gin.Context, err error) {
	h.logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"msg":   messageForKind(members.KindValidation),
		"error": "invalid_request_body",
	})
}

// respondError maps a service failure onto the HTTP response. Client errors
// echo the failure message; server errors expose only a stable code.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	kind := members.KindOf(err)
	status := statusForKind(kind)
	body := gin.H{"msg": messageForKind(kind)}

	if status < http.StatusInternalServerError {
		var serviceErr *members.ServiceError
		if errors.As(err, &serviceErr) {
			body["error"] = serviceErr.Message()
		} else {
			body["error"] = err.Error()
		}
		c.JSON(status, body)
		return
	}

	code := internalCodeByKind[kind]
	if code == "" {
		code = internalCodeByKind[members.KindUnknown]
	}
	tags := map[string]string{"path": c.FullPath(), "kind": string(kind)}
	var serviceErr *members.ServiceError
	if errors.As(err, &serviceErr) {
		tags["code"] = serviceErr.Code()
	}
	h.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("method", c.Request.Method),
		zap.Int("status", status),
		zap.Error(err))
	h.reporter.CaptureException(err, tags)
	body["error"] = code
	c.JSON(status, body)
}
