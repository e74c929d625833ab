package routes

import (
    "backend/controllers"
    "backend/middlewares"

    "github.com/gin-gonic/gin"
    "gorm.io/gorm"
)

type Deps struct {
    DB       *gorm.DB
    Auth     *controllers.AuthController
    Water    *controllers.WaterController
    Progress *controllers.ProgressController
    User     *controllers.UserController
    Realtime *controllers.RealtimeController
}

func SetupRouter(d Deps) *gin.Engine {
    r := gin.Default()

    // Public auth routes
    auth := r.Group("/auth")
    {
        auth.POST("/signup", d.Auth.Signup)
        auth.POST("/login", d.Auth.Login)
        auth.POST("/logout", d.Auth.Logout)
    }

    // Protected API routes
    api := r.Group("/api")
    api.Use(middlewares.AuthMiddleware(d.DB))
    {
        api.GET("/water-level", d.Water.GetWaterLevel)
        api.POST("/water-level", d.Water.UpdateWaterLevel)
        api.POST("/refill", d.Water.Refill)
        api.POST("/track-chatbot", d.Water.TrackChatbot)
        api.GET("/user-progress", d.Progress.UserProgress)
        api.GET("/water-level-history", d.Progress.WaterLevelHistory)
        api.GET("/profile", d.User.GetProfile)
    }

    ws := r.Group("/ws")
    ws.Use(middlewares.AuthMiddleware(d.DB))
    {
        ws.GET("/water-level", d.Realtime.WaterLevelWS)
    }

    return r
}
