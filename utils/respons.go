package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError picks the status from the error kind. Expired tokens carry
// data.expired=true so the client knows a refresh may be enough.
func RespondAppError(c *gin.Context, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		ErrorLogger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.Request.URL.Path)
	}

	var data interface{}
	if errors.Is(err, ErrTokenExpired) {
		data = gin.H{"expired": true}
	}

	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    data,
	})
}
