package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// IncidentWorker drains the incident queue and persists rows in batches, so
// a burst of violation reports never turns into a burst of inserts.
type IncidentWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewIncidentWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *IncidentWorker {
	return &IncidentWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "incident_worker").Logger(),
	}
}

type incidentPayload struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	ExamID      string `json:"exam_id"`
	VType       string `json:"vtype"`
	Timestamp   int64  `json:"timestamp"`
}

func (w *IncidentWorker) Start(ctx context.Context) {
	w.log.Info().Msg("IncidentWorker started")

	buffer := make([]*incidentPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check flush conditions (time or size)
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0] // Clear buffer, keep capacity
				lastFlushTime = time.Now()
			}
		}

		// 2. Check context (graceful shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second and returns
		// immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistIncidentsQueue).Result()

		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		// 4. Process data
		if len(result) < 2 {
			continue
		}

		var payload incidentPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *IncidentWorker) flushSafe(ctx context.Context, batch []*incidentPayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *IncidentWorker) bulkInsert(ctx context.Context, batch []*incidentPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			// Trigger fallback, which handles the bad UUID individually
			return err
		}
		rows = append(rows, []interface{}{
			p.StudentID, p.StudentName, examID, p.VType, time.Unix(p.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"incidents"},
		[]string{"student_id", "student_name", "exam_id", "vtype", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *IncidentWorker) fallbackInsert(ctx context.Context, batch []*incidentPayload) {
	requeueList := make([]*incidentPayload, 0)

	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			w.log.Error().Str("exam_id", p.ExamID).Msg("Dropping incident with invalid UUID")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`INSERT INTO incidents (student_id, student_name, exam_id, vtype, occurred_at)
             VALUES ($1, $2, $3, $4, $5)`,
			p.StudentID, p.StudentName, examID, p.VType, time.Unix(p.Timestamp, 0),
		)

		if err != nil {
			w.log.Error().Err(err).Int("student_id", p.StudentID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *IncidentWorker) requeue(ctx context.Context, items []*incidentPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistIncidentsQueue, data)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Sleep a bit to avoid thrashing if the DB is down hard
		time.Sleep(2 * time.Second)
	}
}

func (w *IncidentWorker) shutdown(buffer []*incidentPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	// Give it 5 seconds to flush to DB
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
