package api

import (
	"log/slog"

	"github.com/shaiso/Trawler/internal/mq"
	"github.com/shaiso/Trawler/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	jobRepo      *repo.JobRepo
	runRepo      *repo.RunRepo
	resultRepo   *repo.StepResultRepo
	scheduleRepo *repo.ScheduleRepo
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	JobRepo      *repo.JobRepo
	RunRepo      *repo.RunRepo
	ResultRepo   *repo.StepResultRepo
	ScheduleRepo *repo.ScheduleRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		jobRepo:      cfg.JobRepo,
		runRepo:      cfg.RunRepo,
		resultRepo:   cfg.ResultRepo,
		scheduleRepo: cfg.ScheduleRepo,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}
