package middleware

import (
	"net/http"

	"github.com/eaglebank/user-crud/internal/validation"
	"github.com/gin-gonic/gin"
)

// RespondWithIssues answers 400 with the ordered issue list as the body.
func RespondWithIssues(c *gin.Context, issues validation.Issues) {
	c.JSON(http.StatusBadRequest, issues)
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
