package http

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"mindcoach-service/internal/app"
	"mindcoach-service/internal/metrics"
)

// Services bundles the use cases the transport layer exposes.
type Services struct {
	Assessments *app.AssessmentService
	Auth        *app.AuthService
	Training    *app.TrainingService
}

// NewRouter wires REST and websocket endpoints.
func NewRouter(s Services) http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	api := newAPIHandler(s)
	authMW := newAuthMiddleware(s.Auth)
	wsHandler := NewWSHandler(s.Assessments, s.Auth)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/ws/assessment", wsHandler.ServeWS).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/auth/login", api.login).Methods("POST", "OPTIONS")

	// any signed-in user
	user := v1.NewRoute().Subrouter()
	user.Use(authMW.requireUser)
	user.HandleFunc("/nav", api.nav).Methods("GET", "OPTIONS")
	user.HandleFunc("/questions", api.listQuestions).Methods("GET", "OPTIONS")
	user.HandleFunc("/assessments", api.submitAssessment).Methods("POST", "OPTIONS")
	user.HandleFunc("/players/{id}/report", api.report).Methods("GET", "OPTIONS")
	user.HandleFunc("/action-plan", api.actionPlan).Methods("GET", "OPTIONS")
	user.HandleFunc("/players/{id}/daily/{date}", api.day).Methods("GET", "OPTIONS")
	user.HandleFunc("/players/{id}/daily/{date}/items/{itemId}", api.markItem).Methods("PUT", "OPTIONS")

	coach := v1.NewRoute().Subrouter()
	coach.Use(authMW.requireUser, requireCoach)
	coach.HandleFunc("/questions", api.createQuestion).Methods("POST", "OPTIONS")
	coach.HandleFunc("/players/{id}/notes", api.setNotes).Methods("PUT", "OPTIONS")
	coach.HandleFunc("/players", api.listPlayers).Methods("GET", "OPTIONS")
	coach.HandleFunc("/users", api.register).Methods("POST", "OPTIONS")
	coach.HandleFunc("/dashboard", api.dashboard).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
