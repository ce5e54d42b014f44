package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"syncsns/domain/repository"
	"syncsns/infrastructure/realtime"
	httpHandler "syncsns/interfaces/http"
	"syncsns/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	postHandler httpHandler.IPostHandler,
	connectionHandler httpHandler.IConnectionHandler,
	instagramOAuthHandler httpHandler.IInstagramOAuthHandler,
	storageHandler httpHandler.IStorageHandler,
	publishHub *realtime.Hub,
	userRepository repository.IUser,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:5173", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/login", userHandler.Login)
	router.POST("/register", userHandler.Register)

	// The OAuth callback is public: Instagram redirects the browser here
	// without a bearer token. The user is resolved from the state nonce
	// issued on the authenticated auth-url route.
	if instagramOAuthHandler != nil {
		router.GET("/auth/instagram/callback", instagramOAuthHandler.Callback)
	}

	api := router.Group("api")
	api.Use(middleware.Auth(userRepository))

	if instagramOAuthHandler != nil {
		api.GET("/auth/instagram", instagramOAuthHandler.GetAuthURL)
	}
	if connectionHandler != nil {
		api.GET("/connections", connectionHandler.List)
		api.GET("/connections/:id", connectionHandler.Get)
		api.DELETE("/connections/:id", connectionHandler.Disconnect)
	}
	if postHandler != nil {
		api.POST("/posts", postHandler.CreatePost)
		api.GET("/posts", postHandler.ListPosts)
		api.GET("/posts/:postId", postHandler.GetPost)
		api.POST("/posts/:postId/publish", postHandler.Publish)
	}
	if storageHandler != nil {
		api.POST("/storage/upload", storageHandler.Upload)
	}
	if publishHub != nil {
		api.GET("/publish/stream", publishHub.Serve)
	}

	return router
}
