package routes

import (
	"github.com/gin-gonic/gin"

	"quizai/handlers"
	"quizai/middleware"
	"quizai/security"
)

const APIPrefix = "/api/v1/quiz-ai"

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	submissionHandler *handlers.SubmissionHandler,
	healthHandler *handlers.HealthHandler,
	eventsHandler *handlers.EventsHandler,
	tokens *security.TokenIssuer,
) {
	api := router.Group(APIPrefix)
	{
		// Public routes
		api.POST("/Signup", authHandler.Signup)
		api.POST("/VerifyNewUser", authHandler.VerifyNewUser)
		api.POST("/ResendVerification", authHandler.ResendVerification)
		api.POST("/Login", authHandler.Login)
		api.POST("/Forgot-Password", authHandler.ForgotPassword)
		api.GET("/VerifyForgetPasswordToken", authHandler.VerifyResetToken)
		api.POST("/ResetPassword", authHandler.ResetPassword)
		api.GET("/health", healthHandler.Health)

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(tokens))
		{
			protected.GET("/exams", quizHandler.GetUserQuizzes)
			protected.GET("/Quiz/:id", quizHandler.GetQuizByID)
			protected.DELETE("/quiz/delete", quizHandler.DeleteQuiz)
			protected.PUT("/:quizId/rename", quizHandler.RenameQuiz)
			protected.DELETE("/Questions/delete", quizHandler.DeleteQuestion)

			protected.POST("/Quiz/Generate", quizHandler.GenerateQuiz)
			protected.POST("/Quiz/Regenerate", quizHandler.RegenerateQuiz)
			protected.POST("/regenerate-question", quizHandler.RegenerateQuestion)

			protected.POST("/Share", quizHandler.ShareQuiz)
			protected.POST("/ShareVerify", quizHandler.RedeemShare)

			protected.POST("/submit", submissionHandler.Submit)
			protected.GET("/submissions", submissionHandler.ListSubmissions)

			// Live quiz events
			protected.GET("/ws", eventsHandler.Connect)
		}
	}

	router.GET("/health", healthHandler.Health)
}
