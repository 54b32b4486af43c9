package respond

import "github.com/gin-gonic/gin"

// JSON writes a JSON response with the given status. Handlers go through
// this instead of c.JSON so response writing stays in one place.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}
