package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type Config struct {
	ServiceName    string
	LearningRate   float64
	HistoryLimit   int
	IdempotencyTTL time.Duration
	OracleTimeout  time.Duration
	NeighborCount  int
	MinSimilarity  float64
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

// Storage keys for the mutable learned state. Everything under "scoring:"
// belongs to this engine; the import/UI layer never writes here.
const (
	KeyGlobalWeights = "scoring:weights:global"
	KeyBaseline      = "scoring:baseline"
	KeySegments      = "scoring:segments"
	KeyWeightMode    = "scoring:mode"
)

// snapshotKeys is the fixed key set captured by Snapshot and written back by
// Restore.
var snapshotKeys = []string{KeyGlobalWeights, KeyBaseline, KeySegments, KeyWeightMode}

type Service struct {
	cfg    Config
	logger *slog.Logger

	ads         ports.AdRepository
	predictions ports.PredictionRepository
	patterns    ports.FailurePatternRepository
	discovered  ports.DiscoveredFeatureRepository
	history     ports.HistoryRepository
	snapshots   ports.SnapshotRepository
	recalcLog   ports.RecalculationLogRepository
	idempotency ports.IdempotencyRepository
	outbox      ports.OutboxRepository

	state  ports.StateStore
	oracle ports.FeatureOracle
	recalc ports.RecalculationQueue

	// keyLocks serializes read-modify-write cycles per storage key; undo and
	// redo take the same locks, so a restore can never race an adjustment.
	keyLocks sync.Map
	// recalcMu keeps recalculation sweeps re-entrant but serialized.
	recalcMu sync.Mutex

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config
	Logger *slog.Logger

	Ads         ports.AdRepository
	Predictions ports.PredictionRepository
	Patterns    ports.FailurePatternRepository
	Discovered  ports.DiscoveredFeatureRepository
	History     ports.HistoryRepository
	Snapshots   ports.SnapshotRepository
	RecalcLog   ports.RecalculationLogRepository
	Idempotency ports.IdempotencyRepository
	Outbox      ports.OutboxRepository

	State  ports.StateStore
	Oracle ports.FeatureOracle
	Recalc ports.RecalculationQueue
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M62-Creative-Scoring-Engine"
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 200
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 10 * time.Second
	}
	if cfg.NeighborCount <= 0 {
		cfg.NeighborCount = 10
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = 0.5
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		ads:         deps.Ads,
		predictions: deps.Predictions,
		patterns:    deps.Patterns,
		discovered:  deps.Discovered,
		history:     deps.History,
		snapshots:   deps.Snapshots,
		recalcLog:   deps.RecalcLog,
		idempotency: deps.Idempotency,
		outbox:      deps.Outbox,
		state:       deps.State,
		oracle:      deps.Oracle,
		recalc:      deps.Recalc,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// lockKey acquires the mutex for one storage key and returns its release.
func (s *Service) lockKey(key string) func() {
	value, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
