package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard-service/config"
	"taskboard-service/handlers"
	"taskboard-service/logging"
	"taskboard-service/middleware"
	"taskboard-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.InitLogger("taskboard-service", cfg.LogFile)

	if cfg.JWTSecret == "" {
		logging.Logger.Fatal("Event ID: CONFIG_INVALID, Description: JWT_SECRET is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB is not reachable: %v", err)
	}
	logging.Logger.Info("Event ID: DB_CONNECTED, Description: Connected to MongoDB")

	db := client.Database(cfg.MongoDBName)
	usersCollection := db.Collection("users")
	projectsCollection := db.Collection("projects")
	tasksCollection := db.Collection("tasks")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "MongoCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE, Description: Circuit breaker %s transitioned from %s to %s", name, from, to)
		},
	})

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	userService := services.NewUserService(usersCollection, jwtService, breaker)
	projectService := services.NewProjectService(projectsCollection, usersCollection, breaker)
	taskService := services.NewTaskService(tasksCollection, usersCollection, breaker)

	if err := userService.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Failed to create indexes: %v", err)
	}

	userHandler := handlers.NewUserHandler(userService, jwtService, cfg.IsProduction())
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API is running"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/users/register", userHandler.Register).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/users/login", userHandler.Login).Methods(http.MethodPost, http.MethodOptions)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireSession(jwtService))

	protected.HandleFunc("/users/logout", userHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/users/profile", userHandler.Profile).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/users/all", userHandler.AllUsers).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/projects", projectHandler.ListMyProjects).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/projects/{id}", projectHandler.GetProjectByID).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/tasks", taskHandler.GetTasksByProject).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/tasks/user/assigned", taskHandler.GetAssignedTasks).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/tasks/{projectId}", taskHandler.GetTasksByProject).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/tasks/{taskId}/status", taskHandler.UpdateTaskStatus).Methods(http.MethodPatch, http.MethodOptions)
	protected.HandleFunc("/tasks/{taskId}", taskHandler.UpdateTask).Methods(http.MethodPut, http.MethodOptions)

	corsHandler := middleware.CORS(cfg.AllowedOrigin)(r)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      corsHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START, Description: Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatalf("Event ID: SERVER_FAILED, Description: Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("Event ID: SERVER_STOPPING, Description: Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: Forced shutdown: %v", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: Failed to disconnect from MongoDB: %v", err)
	}

	logging.Logger.Info("Event ID: SERVER_STOPPED, Description: Server stopped")
}
