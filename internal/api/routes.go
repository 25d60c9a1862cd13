package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, staticDir string) {
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.GET("/analysis", handler.GetAnalysis)
		api.GET("/versions", handler.GetVersions)
		api.GET("/sources", handler.GetSources)
		api.POST("/rescan", handler.Rescan)

		admin := api.Group("/admin")
		{
			admin.GET("/database-status", handler.GetDatabaseStatus)
			admin.POST("/reset-database", handler.ResetDatabase)
			admin.GET("/export", handler.ExportCatalog)
		}
	}

	if staticDir != "" {
		router.Static("/static", staticDir)
		router.StaticFile("/", staticDir+"/index.html")
	}
}
