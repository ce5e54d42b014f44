package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"syncsns/infrastructure/logger"
	"syncsns/usecase"
)

type IConnectionHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Disconnect(c *gin.Context)
}

type ConnectionHandler struct {
	connectionUsecase usecase.IConnectionUsecase
}

func NewConnectionHandler(connectionUsecase usecase.IConnectionUsecase) IConnectionHandler {
	return &ConnectionHandler{connectionUsecase: connectionUsecase}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	connections, err := h.connectionUsecase.List(c.Request.Context(), c.GetString("user_id"), c.Query("platform"))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("list connections failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": connections})
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection id"})
		return
	}
	conn, err := h.connectionUsecase.Get(c.Request.Context(), id, c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection id"})
		return
	}
	if err := h.connectionUsecase.Disconnect(c.Request.Context(), id, c.GetString("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"disconnected": true})
}
