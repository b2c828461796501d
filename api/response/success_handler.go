package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func HandleSuccess(c *gin.Context, data interface{}, message string) {
	respond(c, http.StatusOK, data, message)
}

func HandleCreated(c *gin.Context, data interface{}, message string) {
	respond(c, http.StatusCreated, data, message)
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, &Response{
		Success:   true,
		Data:      data,
		Message:   message,
		Code:      status,
		RequestID: GetRequestID(c),
	})
}
