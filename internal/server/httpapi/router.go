package httpapi

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

const verifyTemplate = "verify.html"

var verifyPage = template.Must(template.New(verifyTemplate).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Email verification</title></head>
<body>
<h1>{{if .Success}}Verified{{else}}Verification failed{{end}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

// NewRouter wires the accounts API. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))
	r.SetHTMLTemplate(verifyPage)

	r.GET("/healthz", h.health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api/users")
	api.POST("/register", h.register)
	api.GET("/verify", h.verify)
	api.POST("/validate", h.validate)
	api.POST("/token/refresh", h.refresh)

	authed := api.Group("", bearerAuth(h.sessions))
	authed.GET("", adminOnly(), h.list)
	authed.GET("/display/:displayId", h.getByDisplayID)

	account := authed.Group("/:id", ownerOrAdmin())
	account.GET("", h.get)
	account.PUT("", h.updateProfile)
	account.DELETE("", h.delete)
	account.PUT("/password", h.changePassword)
	account.GET("/addresses", h.listAddresses)
	account.POST("/addresses", h.addAddress)
	account.PUT("/addresses/:addressId", h.updateAddress)
	account.DELETE("/addresses/:addressId", h.deleteAddress)

	return r
}
