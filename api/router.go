package api

import (
	"net/http"

	"github.com/fyerfyer/contract-filler/api/handler"
	"github.com/fyerfyer/contract-filler/api/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由和全局中间件
func SetupRouter(
	contractHandler *handler.ContractHandler,
	extractHandler *handler.ExtractHandler,
	maxUploadSize int64,
) *gin.Engine {
	handler.RegisterValidators()

	router := gin.New()
	if maxUploadSize > 0 {
		router.MaxMultipartMemory = maxUploadSize
	}

	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(Cors())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
		router.Use(middleware.ResponseLogger())
	}

	api := router.Group("/api")
	{
		contracts := api.Group("/contracts")
		{
			contracts.POST("", contractHandler.FillContract)
			contracts.GET("", contractHandler.ListRuns)
			contracts.GET("/:id", contractHandler.GetRun)
			contracts.GET("/:id/download", contractHandler.Download)
			contracts.GET("/:id/report", contractHandler.Report)
		}

		api.POST("/extract/:kind", extractHandler.ExtractDocument)
		api.POST("/templates/normalize", extractHandler.NormalizeTemplate)
		api.GET("/fields", extractHandler.ListFields)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Run-ID, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
