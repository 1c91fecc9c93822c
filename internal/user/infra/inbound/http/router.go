package http

import "github.com/gin-gonic/gin"

// RegisterUserRoutes registra las rutas del contexto de usuarios.
func RegisterUserRoutes(r *gin.Engine, h *UserHandler) {
	users := r.Group("/users")
	{
		users.POST("", h.RegisterUser)
		users.GET("/:id", h.GetUser)
		users.POST("/:id/activate", h.ActivateUser)
	}
}
