package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mindcoach-service/internal/app"
	"mindcoach-service/internal/config"
	"mindcoach-service/internal/infra/memory"
	"mindcoach-service/internal/infra/mongo"
	"mindcoach-service/internal/infra/postgres"
	"mindcoach-service/internal/infra/rabbitmq"
	redisstore "mindcoach-service/internal/infra/redis"
	transport "mindcoach-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the coaching server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the stores picked from config. close releases connections.
type backends struct {
	loader      memory.QuestionLoader
	writer      app.QuestionWriter
	questions   app.QuestionRepository
	evaluations app.EvaluationRepository
	users       app.UserRepository
	completions app.CompletionStore
	closers     []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// usePostgres reports whether Postgres backs questions and evaluations.
// A configured MongoDB takes precedence and Postgres is left closed.
func usePostgres(cfg config.Config) bool {
	return cfg.Postgres.URL != "" && cfg.Mongo.URI == ""
}

// openBackends prefers MongoDB, then Postgres, then in-memory stores.
func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	static := memory.NewStaticQuestionLoader(sampleQuestions())
	b.loader, b.writer = static, static
	b.evaluations = memory.NewEvaluationStore()
	b.users = memory.NewUserStore()

	switch {
	case cfg.Mongo.URI != "":
		client, err := mongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		db := client.Database(cfg.Mongo.Database)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			b.close()
			return nil, err
		}
		mongoQuestions := mongo.NewQuestionStore(db)
		b.loader, b.writer = mongoQuestions, mongoQuestions
		b.evaluations = mongo.NewEvaluationStore(db)
		b.users = mongo.NewUserStore(db)
	case usePostgres(cfg):
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		pgQuestions := postgres.NewQuestionStore(pool)
		b.loader, b.writer = pgQuestions, pgQuestions

		db := postgres.NewBunDB(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		b.evaluations = postgres.NewEvaluationRepository(db)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	retention := config.TTLDuration(cfg.Training.Retention, config.TTLDuration(cfg.Redis.TTL, 720*time.Hour))
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
		b.questions = redisstore.NewQuestionRepository(redisClient, b.loader, questionTTL)
		b.completions = redisstore.NewCompletionStore(redisClient, retention)
	} else {
		b.questions = memory.NewQuestionRepository(b.loader, questionTTL)
		b.completions = memory.NewCompletionStore()
	}
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if usePostgres(cfg) {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	stores, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.close()

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Printf("rabbitmq unavailable, evaluation events disabled: %v", err)
		publisher, _ = rabbitmq.NewPublisher("", "")
	}
	defer publisher.Close()

	assessments := app.NewAssessmentService(stores.questions, stores.evaluations)
	assessments.SetQuestionWriter(stores.writer)
	if publisher.Enabled() {
		assessments.SetEventPublisher(publisher)
	}

	if cfg.Auth.JWTSecret == "" {
		log.Println("auth.jwt_secret is empty, tokens are signed with an empty key")
	}
	auth := app.NewAuthService(stores.users, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	if err := auth.EnsureCoach(ctx, cfg.Auth.CoachEmail, cfg.Auth.CoachPassword); err != nil {
		return err
	}
	training := app.NewTrainingService(stores.completions)

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(transport.Services{
			Assessments: assessments,
			Auth:        auth,
			Training:    training,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting mindcoach service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
