package main

import (
    "os"

    "backend/config"
    "backend/controllers"
    "backend/routes"
    "backend/services"
)

func main() {
    db := config.InitDB()

    hub := services.NewWaterHub()
    authSvc := services.NewAuthService(db)
    waterSvc := services.NewWaterService(db, hub)
    historySvc := services.NewHistoryService(db)

    r := routes.SetupRouter(routes.Deps{
        DB:       db,
        Auth:     controllers.NewAuthController(authSvc),
        Water:    controllers.NewWaterController(waterSvc),
        Progress: controllers.NewProgressController(historySvc),
        User:     controllers.NewUserController(authSvc),
        Realtime: controllers.NewRealtimeController(hub),
    })

    port := os.Getenv("PORT")
    if port == "" {
        port = "8080"
    }
    r.Run(":" + port)
}
