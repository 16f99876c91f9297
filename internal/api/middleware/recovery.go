package middleware

import (
	"fmt"
	"net/http"

	"github.com/debanirmalya/hirebuddy/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery turns handler panics into a logged 500 with the usual error body.
func Recovery(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				reqID, _ := c.Get("request_id")
				l.WithFields(logrus.Fields{
					"request_id": reqID,
					"path":       c.FullPath(),
					"panic":      fmt.Sprint(r),
				}).Error("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    utils.CodeInternal,
					"message": "internal error",
				})
			}
		}()
		c.Next()
	}
}
