package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
)

// RegisterRoutes sets up all application routes, injecting the service
// facades. Authentication is upstream; routes trust the actor middleware.
func RegisterRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	v1 := r.Group("/api/v1")

	orgs := v1.Group("/orgs/:orgID")
	registerEntryRoutes(orgs, services.Entry)
	registerBalanceRoutes(orgs, services.Balance)
	registerWorkspaceRoutes(orgs, services.Workspace)

	admin := v1.Group("/admin")
	registerReversalRoutes(orgs, admin, services.Reversal)
}
