package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ItemsResponse is the envelope of list endpoints that carry no paging.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Items writes {"items": [...]}. A nil slice is written as [].
func Items[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	OK(c, ItemsResponse[T]{Items: items})
}
