package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/NxTech4021/dl-backend-sub000/external/notify"
	"github.com/NxTech4021/dl-backend-sub000/external/ratingengine"
	"github.com/NxTech4021/dl-backend-sub000/internal/config"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/adminaction"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/dispute"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/invitation"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/match"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/participant"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/penalty"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/rating"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/standing"
	"github.com/NxTech4021/dl-backend-sub000/internal/domain/timeslot"
	"github.com/NxTech4021/dl-backend-sub000/internal/infrastructure/repository/memory"
	"github.com/NxTech4021/dl-backend-sub000/internal/infrastructure/repository/postgres"
	idgen "github.com/NxTech4021/dl-backend-sub000/internal/platform/id"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/resilience"
	"github.com/NxTech4021/dl-backend-sub000/internal/usecase"
)

// Engine bundles the wired services for one running process. With DB_URL set
// it runs on postgres; without it the memory profile backs everything, which
// is what local development uses.
type Engine struct {
	Scheduling *usecase.SchedulingService
	Results    *usecase.ResultService
	Recalc     *usecase.RecalcService
	Disputes   *usecase.DisputeService
	Penalties  *usecase.PenaltyService
	Standings  *usecase.StandingService
	Sweeper    *usecase.SweeperService

	db     *sqlx.DB
	logger *logging.Logger
}

type repoSet struct {
	matches      match.Repository
	participants participant.Repository
	invitations  invitation.Repository
	slots        timeslot.Repository
	disputes     dispute.Repository
	ratings      rating.Repository
	penalties    penalty.Repository
	audits       adminaction.Repository
	standings    standing.Repository
	membership   usecase.MembershipOracle
}

func NewEngine(cfg config.Config, logger *logging.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db    *sqlx.DB
		repos repoSet
		tx    usecase.TxRunner
		err   error
	)
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using in-memory storage")
		repos = memoryRepos()
	} else {
		db, err = openDB(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repos = postgresRepos(db)
		tx = postgres.NewTxRunner(db)
	}

	var notifier usecase.Notifier
	if cfg.NotifyEnabled {
		notifier = notify.NewClient(notify.ClientConfig{
			BaseURL: cfg.NotifyBaseURL,
			Token:   cfg.NotifyToken,
			Timeout: cfg.NotifyTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.NotifyCircuitEnabled,
				FailureThreshold: cfg.NotifyCircuitFailureCount,
				OpenTimeout:      cfg.NotifyCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.NotifyCircuitHalfOpenMaxReq,
			},
		}, logger)
	}
	dispatcher := usecase.NewEventDispatcher(notifier, logger)

	ids := idgen.NewUUIDGenerator()
	engine := ratingengine.New()
	detector := usecase.NewConflictDetector(repos.matches, repos.participants, repos.slots, logger)

	standingSvc := usecase.NewStandingService(repos.matches, repos.participants, repos.standings, logger)
	penaltySvc := usecase.NewPenaltyService(repos.penalties, repos.audits, tx, dispatcher, ids, logger)
	resultSvc := usecase.NewResultService(
		repos.matches, repos.participants, repos.disputes, repos.ratings,
		engine, standingSvc, penaltySvc, tx, dispatcher, ids, logger,
	)
	recalcSvc := usecase.NewRecalcService(
		repos.matches, repos.participants, repos.audits, repos.ratings,
		engine, standingSvc, standingSvc, tx, dispatcher, ids, logger,
	)
	disputeSvc := usecase.NewDisputeService(
		repos.disputes, repos.matches, repos.participants, repos.audits,
		recalcSvc, tx, dispatcher, ids, logger,
	)
	schedulingSvc := usecase.NewSchedulingService(
		repos.matches, repos.participants, repos.invitations, repos.slots, repos.audits,
		repos.membership, detector, tx, dispatcher, ids,
		usecase.SchedulingConfig{
			InviteExpiry:         cfg.InviteExpiry,
			LateCancelWindow:     cfg.LateCancelWindow,
			ConflictWindowCreate: cfg.ConflictWindowCreate,
			ConflictWindowAccept: cfg.ConflictWindowAccept,
			RequiresConfirmation: cfg.RequiresConfirmation,
		}, logger,
	)
	sweeperSvc := usecase.NewSweeperService(
		repos.matches, repos.participants, repos.invitations, repos.disputes,
		penaltySvc,
		usecase.SweeperConfig{
			Interval:             cfg.SweepInterval,
			DisputeEscalateAfter: cfg.DisputeEscalateAfter,
			StaleResultAfter:     cfg.StaleResultAfter,
			Workers:              cfg.SweepWorkers,
		}, logger,
	)

	return &Engine{
		Scheduling: schedulingSvc,
		Results:    resultSvc,
		Recalc:     recalcSvc,
		Disputes:   disputeSvc,
		Penalties:  penaltySvc,
		Standings:  standingSvc,
		Sweeper:    sweeperSvc,
		db:         db,
		logger:     logger,
	}, nil
}

// Close releases the storage handle. Safe on a memory-profile engine.
func (e *Engine) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

func openDB(dsn string) (*sqlx.DB, error) {
	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)

	return db, nil
}

func memoryRepos() repoSet {
	return repoSet{
		matches:      memory.NewMatchRepository(),
		participants: memory.NewParticipantRepository(),
		invitations:  memory.NewInvitationRepository(),
		slots:        memory.NewTimeSlotRepository(),
		disputes:     memory.NewDisputeRepository(),
		ratings:      memory.NewRatingRepository(),
		penalties:    memory.NewPenaltyRepository(),
		audits:       memory.NewAdminActionRepository(),
		standings:    memory.NewStandingRepository(),
		membership:   memory.SeedRoster(),
	}
}

func postgresRepos(db *sqlx.DB) repoSet {
	return repoSet{
		matches:      postgres.NewMatchRepository(db),
		participants: postgres.NewParticipantRepository(db),
		invitations:  postgres.NewInvitationRepository(db),
		slots:        postgres.NewTimeSlotRepository(db),
		disputes:     postgres.NewDisputeRepository(db),
		ratings:      postgres.NewRatingRepository(db),
		penalties:    postgres.NewPenaltyRepository(db),
		audits:       postgres.NewAdminActionRepository(db),
		standings:    postgres.NewStandingRepository(db),
		membership:   postgres.NewMembershipRepository(db),
	}
}
