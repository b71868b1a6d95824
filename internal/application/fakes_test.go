package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/cache"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/ports"
)

type fakeAds struct {
	rows map[string]domain.AdRecord
}

func newFakeAds() *fakeAds { return &fakeAds{rows: map[string]domain.AdRecord{}} }

func (f *fakeAds) Upsert(_ context.Context, row domain.AdRecord) error {
	f.rows[row.AdID] = row
	return nil
}

func (f *fakeAds) GetByID(_ context.Context, adID string) (domain.AdRecord, error) {
	row, ok := f.rows[adID]
	if !ok {
		return domain.AdRecord{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakeAds) List(_ context.Context, limit int) ([]domain.AdRecord, error) {
	ids := make([]string, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.AdRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.rows[id])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAds) SetOutcome(_ context.Context, adID string, outcome domain.OutcomeResult, at time.Time) error {
	row, ok := f.rows[adID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Outcome = &outcome
	row.UpdatedAt = at
	f.rows[adID] = row
	return nil
}

func (f *fakeAds) UpdateScores(_ context.Context, scores map[string]int, at time.Time) error {
	for adID := range scores {
		if _, ok := f.rows[adID]; !ok {
			return fmt.Errorf("unknown ad %s", adID)
		}
	}
	for adID, score := range scores {
		row := f.rows[adID]
		row.CurrentScore = score
		row.UpdatedAt = at
		f.rows[adID] = row
	}
	return nil
}

type fakePredictions struct {
	rows map[string]domain.PredictionRecord
}

func newFakePredictions() *fakePredictions {
	return &fakePredictions{rows: map[string]domain.PredictionRecord{}}
}

func (f *fakePredictions) Create(_ context.Context, row domain.PredictionRecord) error {
	if _, ok := f.rows[row.PredictionID]; ok {
		return domain.ErrConflict
	}
	f.rows[row.PredictionID] = row
	return nil
}

func (f *fakePredictions) Update(_ context.Context, row domain.PredictionRecord) error {
	if _, ok := f.rows[row.PredictionID]; !ok {
		return domain.ErrNotFound
	}
	f.rows[row.PredictionID] = row
	return nil
}

func (f *fakePredictions) GetByID(_ context.Context, predictionID string) (domain.PredictionRecord, error) {
	row, ok := f.rows[predictionID]
	if !ok {
		return domain.PredictionRecord{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakePredictions) FindOpenByAdID(_ context.Context, adID string) (domain.PredictionRecord, error) {
	var best *domain.PredictionRecord
	for id := range f.rows {
		row := f.rows[id]
		if row.AdID != adID || row.Reconciled() {
			continue
		}
		if best == nil || row.PredictedAt.Before(best.PredictedAt) {
			best = &row
		}
	}
	if best == nil {
		return domain.PredictionRecord{}, domain.ErrNotFound
	}
	return *best, nil
}

func (f *fakePredictions) List(_ context.Context, limit int) ([]domain.PredictionRecord, error) {
	out := make([]domain.PredictionRecord, 0, len(f.rows))
	for id := range f.rows {
		out = append(out, f.rows[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictedAt.After(out[j].PredictedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePatterns struct {
	rows []domain.FailurePattern
}

func (f *fakePatterns) Create(_ context.Context, row domain.FailurePattern) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakePatterns) List(_ context.Context, limit int) ([]domain.FailurePattern, error) {
	out := f.rows
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append([]domain.FailurePattern{}, out...), nil
}

func (f *fakePatterns) CountByClass(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, row := range f.rows {
		counts[string(row.Class)]++
	}
	return counts, nil
}

type fakeDiscovered struct {
	rows map[string]domain.DiscoveredFeature
}

func newFakeDiscovered() *fakeDiscovered {
	return &fakeDiscovered{rows: map[string]domain.DiscoveredFeature{}}
}

func (f *fakeDiscovered) Upsert(_ context.Context, row domain.DiscoveredFeature) error {
	f.rows[row.Name] = row
	return nil
}

func (f *fakeDiscovered) GetByName(_ context.Context, name string) (domain.DiscoveredFeature, error) {
	row, ok := f.rows[name]
	if !ok {
		return domain.DiscoveredFeature{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakeDiscovered) List(_ context.Context) ([]domain.DiscoveredFeature, error) {
	names := make([]string, 0, len(f.rows))
	for name := range f.rows {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domain.DiscoveredFeature, 0, len(names))
	for _, name := range names {
		out = append(out, f.rows[name])
	}
	return out, nil
}

type fakeHistory struct {
	capacity int
	rows     []domain.HistoryEntry
}

func newFakeHistory(capacity int) *fakeHistory { return &fakeHistory{capacity: capacity} }

func (f *fakeHistory) Append(_ context.Context, row domain.HistoryEntry) (int, error) {
	f.rows = append(f.rows, row)
	dropped := 0
	if f.capacity > 0 && len(f.rows) > f.capacity {
		dropped = len(f.rows) - f.capacity
		f.rows = f.rows[dropped:]
	}
	return dropped, nil
}

func (f *fakeHistory) GetByID(_ context.Context, entryID string) (domain.HistoryEntry, error) {
	for _, row := range f.rows {
		if row.EntryID == entryID {
			return row, nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrNotFound
}

func (f *fakeHistory) LatestEligible(_ context.Context, undone bool) (domain.HistoryEntry, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].IsUndone == undone {
			return f.rows[i], nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrNotFound
}

func (f *fakeHistory) SetUndone(_ context.Context, entryID string, undone bool) error {
	for i := range f.rows {
		if f.rows[i].EntryID == entryID {
			f.rows[i].IsUndone = undone
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeHistory) List(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	out := make([]domain.HistoryEntry, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.rows[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeSnapshots struct {
	rows []domain.StateSnapshot
}

func (f *fakeSnapshots) Create(_ context.Context, row domain.StateSnapshot) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeSnapshots) GetByID(_ context.Context, snapshotID string) (domain.StateSnapshot, error) {
	for _, row := range f.rows {
		if row.SnapshotID == snapshotID {
			return row, nil
		}
	}
	return domain.StateSnapshot{}, domain.ErrNotFound
}

func (f *fakeSnapshots) List(_ context.Context, limit int) ([]domain.StateSnapshot, error) {
	out := make([]domain.StateSnapshot, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.rows[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRecalcLogs struct {
	rows []domain.RecalculationLog
}

func (f *fakeRecalcLogs) Create(_ context.Context, row domain.RecalculationLog) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeRecalcLogs) List(_ context.Context, limit int) ([]domain.RecalculationLog, error) {
	out := make([]domain.RecalculationLog, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, f.rows[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeIdempotency struct {
	rows map[string]*ports.IdempotencyRecord
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{rows: map[string]*ports.IdempotencyRecord{}}
}

func (f *fakeIdempotency) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	row, ok := f.rows[key]
	if !ok || row.ExpiresAt.Before(now) {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeIdempotency) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	if _, ok := f.rows[key]; ok {
		return domain.ErrConflict
	}
	f.rows[key] = &ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeIdempotency) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	row, ok := f.rows[key]
	if !ok {
		return domain.ErrNotFound
	}
	row.ResponseCode = responseCode
	row.ResponseBody = responseBody
	return nil
}

type fakeOutbox struct {
	records []ports.OutboxRecord
}

func (f *fakeOutbox) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeOutbox) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	out := []ports.OutboxRecord{}
	for _, rec := range f.records {
		if rec.SentAt == nil {
			out = append(out, rec)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, recordID string, at time.Time) error {
	for i := range f.records {
		if f.records[i].RecordID == recordID {
			f.records[i].SentAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeOutbox) eventTypes() []string {
	out := make([]string, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec.EventType)
	}
	return out
}

type fakeOracle struct {
	suggestions []domain.FeatureSuggestion
	err         error
	calls       int
}

func (f *fakeOracle) SuggestFeatures(_ context.Context, _ domain.CreativeTraits, _ domain.OutcomeResult, _ domain.DiscoveryReason) ([]domain.FeatureSuggestion, error) {
	f.calls++
	return f.suggestions, f.err
}

type fakeQueue struct {
	triggers []string
	full     bool
}

func (f *fakeQueue) Enqueue(trigger string) bool {
	if f.full {
		return false
	}
	f.triggers = append(f.triggers, trigger)
	return true
}

type testEnv struct {
	svc         *Service
	ads         *fakeAds
	predictions *fakePredictions
	patterns    *fakePatterns
	discovered  *fakeDiscovered
	history     *fakeHistory
	snapshots   *fakeSnapshots
	recalcLogs  *fakeRecalcLogs
	idempotency *fakeIdempotency
	outbox      *fakeOutbox
	oracle      *fakeOracle
	queue       *fakeQueue
	state       *cache.MemoryStateStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		ads:         newFakeAds(),
		predictions: newFakePredictions(),
		patterns:    &fakePatterns{},
		discovered:  newFakeDiscovered(),
		history:     newFakeHistory(200),
		snapshots:   &fakeSnapshots{},
		recalcLogs:  &fakeRecalcLogs{},
		idempotency: newFakeIdempotency(),
		outbox:      &fakeOutbox{},
		oracle:      &fakeOracle{err: domain.ErrOracleUnavailable},
		queue:       &fakeQueue{},
		state:       cache.NewMemoryStateStore(),
	}
	env.svc = NewService(Dependencies{
		Config:      Config{ServiceName: "scoring-test"},
		Ads:         env.ads,
		Predictions: env.predictions,
		Patterns:    env.patterns,
		Discovered:  env.discovered,
		History:     env.history,
		Snapshots:   env.snapshots,
		RecalcLog:   env.recalcLogs,
		Idempotency: env.idempotency,
		Outbox:      env.outbox,
		State:       env.state,
		Oracle:      env.oracle,
		Recalc:      env.queue,
	})
	return env
}
