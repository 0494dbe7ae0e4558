package http

import "github.com/gin-gonic/gin"

// errorBody 是控制接口统一的错误响应
type errorBody struct {
	Error string `json:"error"`
}

// abortWithError 写回错误并终止后续 handler
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorBody{Error: message})
}

func respondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
