package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leoride/internal/domain"
	"leoride/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskSheetsUpsert     = "sheets_upsert"
	TaskReconcilePayment = "reconcile_payment"
)

// SyncWorker drains the sync_queue table and applies each task: pushing
// booking rows to the report spreadsheet or reconciling a booking's
// payment status against its payment attempts. Tasks ride through redis
// when it is up, with the DB poll as the safety net.
type SyncWorker struct {
	repo          domain.Repository
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	fullSyncEvery time.Duration
	lastFullSync  time.Time
	logger        *zerolog.Logger
}

// NewSyncWorker builds a worker with sane defaults.
func NewSyncWorker(repo domain.Repository, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SyncWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SyncWorker{
		repo:          repo,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sync:queue",
		deadLetterKey: "sync:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		fullSyncEvery: 6 * time.Hour,
		logger:        logger,
	}
}

// EnqueueTask persists the task to the DB and schedules it via redis or
// the in-memory queue.
func (w *SyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID string) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == "" {
		return errors.New("booking id is required")
	}

	syncTask := models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.repo.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Msg("sync_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("sync_worker: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sync_worker: started")
	defer w.logger.Info().Msg("sync_worker: stopped")

	w.lastFullSync = time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if w.sheets != nil && w.fullSyncEvery > 0 && time.Since(w.lastFullSync) >= w.fullSyncEvery {
			if err := w.FullSheetSync(ctx); err != nil {
				w.logger.Error().Err(err).Msg("sync_worker: full sheet sync")
			}
			w.lastFullSync = time.Now()
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.repo.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("sync_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SyncWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SyncWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("sync_worker: redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("sync_worker: decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SyncWorker) processTask(ctx context.Context, task *models.SyncTask) {
	if err := w.handleTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.repo.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark completed")
	}
}

func (w *SyncWorker) handleTask(ctx context.Context, task *models.SyncTask) error {
	switch task.TaskType {
	case TaskSheetsUpsert:
		if w.sheets == nil {
			// No spreadsheet configured; treat as done.
			return nil
		}
		details, err := w.repo.GetBookingDetails(ctx, task.BookingID, "")
		if err != nil {
			return fmt.Errorf("load booking %s: %w", task.BookingID, err)
		}
		return w.sheets.UpsertBooking(ctx, details)
	case TaskReconcilePayment:
		return w.repo.ReconcilePaymentStatus(ctx, task.BookingID)
	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

// FullSheetSync rebuilds the whole bookings sheet from the database. Runs
// on a schedule so rows missed by per-booking upserts eventually converge.
func (w *SyncWorker) FullSheetSync(ctx context.Context) error {
	if w.sheets == nil {
		return nil
	}

	bookings, err := w.repo.ListBookings(ctx, "", "")
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	details := make([]*models.BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		d, err := w.repo.GetBookingDetails(ctx, b.ID, "")
		if err != nil {
			return fmt.Errorf("load booking %s: %w", b.ID, err)
		}
		details = append(details, d)
	}

	return w.sheets.ReplaceBookingsSheet(ctx, details)
}

func (w *SyncWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.repo.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.repo.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: mark retry")
	}
}

func (w *SyncWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SyncWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("sync_worker: deadletter push")
	}
}
