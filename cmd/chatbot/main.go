package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
)

type chatInput struct {
	Message  string                 `json:"message"`
	Messages []services.ChatMessage `json:"messages"`
}

func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatalf("OPENAI_API_KEY is not set")
	}

	cfg := services.ModelConfig{Primary: "gpt-4o-mini", Fallback: "gpt-4o"}
	if v := os.Getenv("CHAT_MODEL_PRIMARY"); v != "" {
		cfg.Primary = v
	}
	if v := os.Getenv("CHAT_MODEL_FALLBACK"); v != "" {
		cfg.Fallback = v
	}

	chat := services.NewChatService(openai.NewClient(apiKey), cfg)
	log.Printf("using model: %s", chat.PickModel(context.Background()))

	r := gin.Default()
	// local dev serves the frontend from a different origin
	r.Use(cors.Default())

	r.POST("/chat", func(c *gin.Context) {
		var input chatInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"reply": "Error: invalid request body"})
			return
		}

		reply, err := chat.Reply(c.Request.Context(), input.Messages, input.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"reply": "Error: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"reply": reply})
	})

	port := os.Getenv("CHAT_PORT")
	if port == "" {
		port = "5000"
	}
	r.Run(":" + port)
}
