package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/hanspeterhess/show-time-aws-V1/internal/config"
	"github.com/hanspeterhess/show-time-aws-V1/internal/logging"
	"github.com/hanspeterhess/show-time-aws-V1/internal/model"
	"github.com/hanspeterhess/show-time-aws-V1/internal/queue"
	"github.com/hanspeterhess/show-time-aws-V1/internal/relay"
	"github.com/hanspeterhess/show-time-aws-V1/internal/repository"
	"github.com/hanspeterhess/show-time-aws-V1/internal/storage"
)

var (
	ErrFileNameRequired = errors.New("fileName is required")
	ErrKeyRequired      = errors.New("key is required")
	ErrNotFound         = errors.New("object not found")

	errObjectNotVisible = errors.New("object not yet visible")
)

var tracer = otel.Tracer("relay-service")

// TimestampListResult is the service-level DTO for paginated timestamps.
type TimestampListResult struct {
	Items []model.Timestamp `json:"data"`
	Total int               `json:"total"`
}

// RelayService defines the use cases of the relay/coordinator: bridging
// short-lived HTTP requests to the persistent channel and fanning results out.
// The embedded relay.EventHandler receives the channel-side events.
type RelayService interface {
	// StoreTimestamp captures the current time, persists it, and schedules a
	// time-ready broadcast after the configured delay. The broadcast is
	// skipped when persistence fails.
	StoreTimestamp(ctx context.Context) (*model.Timestamp, error)

	// ListTimestamps returns stored timestamps using limit/offset and a total count.
	ListTimestamps(ctx context.Context, limit, offset int) (*TimestampListResult, error)

	// GetTimestamp returns a single stored timestamp by its ID.
	// Returns ErrNotFound when no record exists.
	GetTimestamp(ctx context.Context, id string) (*model.Timestamp, error)

	// IssueUploadTarget generates a fresh random key (the configured suffix is
	// forced regardless of the hint) and presigns a write-capable URL for it.
	IssueUploadTarget(ctx context.Context, fileNameHint string) (*model.UploadTarget, error)

	// IssueDownloadTarget verifies the object exists, then presigns a
	// read-capable URL. Returns ErrNotFound when the object is absent.
	IssueDownloadTarget(ctx context.Context, key string) (string, error)

	// ReceiveWorkerResult fans a worker's reported result out to all peers:
	// processing-error when the worker reported a failure, image-blurred otherwise.
	ReceiveWorkerResult(result model.ProcessingResult)

	relay.EventHandler
}

// relayService is the concrete implementation of RelayService.
type relayService struct {
	store    storage.Storage
	repo     repository.TimestampRepository
	notifier relay.Notifier
	pub      queue.Publisher
	cfg      config.RelayConfig
	workerFn string
}

// NewRelayService constructs a new RelayService.
func NewRelayService(
	store storage.Storage,
	repo repository.TimestampRepository,
	notifier relay.Notifier,
	pub queue.Publisher,
	cfg config.RelayConfig,
	workerFn string,
) RelayService {
	return &relayService{
		store:    store,
		repo:     repo,
		notifier: notifier,
		pub:      pub,
		cfg:      cfg,
		workerFn: workerFn,
	}
}

func (s *relayService) StoreTimestamp(ctx context.Context) (*model.Timestamp, error) {
	ts := &model.Timestamp{
		ID:         uuid.New().String(),
		RecordedAt: time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("store timestamp: %w", err)
	}

	// The broadcast is deliberately paced; the stored value is announced to
	// all peers only after the configured delay.
	go func(announced string) {
		time.Sleep(s.cfg.BroadcastDelay)
		s.notifier.Broadcast(relay.NewTimeReady(announced))
		logging.Debug().Str("time", announced).Msg("time-ready broadcast sent")
	}(stored.RecordedAt.Format(time.RFC3339Nano))

	return stored, nil
}

// ListTimestamps returns paginated records without exposing repository types.
func (s *relayService) ListTimestamps(ctx context.Context, limit, offset int) (*TimestampListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &TimestampListResult{Items: res.Items, Total: res.Total}, nil
}

// GetTimestamp fetches one record, mapping a missing row to ErrNotFound.
func (s *relayService) GetTimestamp(ctx context.Context, id string) (*model.Timestamp, error) {
	ts, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find timestamp: %w", err)
	}
	return ts, nil
}

func (s *relayService) IssueUploadTarget(ctx context.Context, fileNameHint string) (*model.UploadTarget, error) {
	if fileNameHint == "" {
		return nil, ErrFileNameRequired
	}
	// The hint never influences the key: a fresh UUID with the fixed suffix.
	key := model.UploadPrefix + uuid.New().String() + model.UploadSuffix

	url, err := s.store.PresignPut(ctx, key, s.cfg.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload url: %w", err)
	}
	return &model.UploadTarget{UploadURL: url, FileName: key}, nil
}

func (s *relayService) IssueDownloadTarget(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrKeyRequired
	}
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check object existence: %w", err)
	}
	if !exists {
		return "", ErrNotFound
	}

	url, err := s.store.PresignGet(ctx, key, s.cfg.DownloadURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign download url: %w", err)
	}
	return url, nil
}

// UploadComplete handles a client's report that a direct upload finished.
// The flow runs asynchronously: the reporting event carries no reply.
func (s *relayService) UploadComplete(originalKey string) {
	go s.dispatchJob(context.Background(), originalKey)
}

// dispatchJob waits for the uploaded object to become visible (bounded
// constant-backoff re-check, standing in for storage eventual consistency),
// then forwards a job descriptor to the registered worker. A job with no
// worker available is dropped after a scale-up request is queued.
func (s *relayService) dispatchJob(ctx context.Context, originalKey string) {
	ctx, span := tracer.Start(ctx, "relay.dispatch_job",
		oteltrace.WithAttributes(attribute.String("object.key", originalKey)))
	defer span.End()

	attempts := s.cfg.ConsistencyAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(s.cfg.ConsistencyInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		exists, err := s.store.Exists(ctx, originalKey)
		if err != nil {
			return retry.RetryableError(err)
		}
		if !exists {
			return retry.RetryableError(errObjectNotVisible)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		logging.Error().Err(err).Str("original_key", originalKey).Msg("uploaded object never became visible")
		s.notifier.Broadcast(relay.NewUploadError("uploaded object not found: " + originalKey))
		return
	}

	job := relay.JobPayload{OriginalKey: originalKey}
	if s.cfg.InlineJobPayload {
		data, err := s.readObject(ctx, originalKey)
		if err != nil {
			logging.Error().Err(err).Str("original_key", originalKey).Msg("failed to read object for inline dispatch")
			s.notifier.Broadcast(relay.NewUploadError("failed to read uploaded object: " + originalKey))
			return
		}
		job.Buffer = base64.StdEncoding.EncodeToString(data)
	}

	if err := s.notifier.SendToWorker(relay.NewBlurJob(job)); err != nil {
		// No retry and no client-visible error: the job is dropped, and the
		// autoscaler is nudged so a worker shows up for the next one.
		logging.Warn().Err(err).Str("original_key", originalKey).Msg("no worker available, dropping job")
		if errors.Is(err, relay.ErrNoWorker) {
			s.requestScaleUp(ctx, originalKey)
		}
		return
	}
	logging.Info().Str("original_key", originalKey).Msg("job dispatched to worker")
}

func (s *relayService) readObject(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *relayService) requestScaleUp(ctx context.Context, originalKey string) {
	req := queue.ScaleUpRequest{
		OriginalKey:    originalKey,
		WorkerFunction: s.workerFn,
		RequestedAt:    time.Now().UTC(),
	}
	if err := s.pub.Publish(ctx, req); err != nil {
		logging.Error().Err(err).Str("original_key", originalKey).Msg("failed to publish scale-up request")
	}
}

// ProcessedImage stores a worker's inline job output under the derived key
// and announces completion.
func (s *relayService) ProcessedImage(originalKey string, data []byte) {
	ctx := context.Background()
	blurredKey := model.DerivedKey(originalKey)

	_, err := s.store.Put(ctx, blurredKey, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"original-key": originalKey},
	})
	if err != nil {
		logging.Error().Err(err).Str("original_key", originalKey).Msg("failed to store processed image")
		s.notifier.Broadcast(relay.NewProcessingError(originalKey, "failed to store processed image"))
		return
	}
	s.notifier.Broadcast(relay.NewImageBlurred(blurredKey, originalKey))
}

// ProcessedUploaded handles a worker that stored its output itself.
func (s *relayService) ProcessedUploaded(originalKey, blurredKey string) {
	s.ReceiveWorkerResult(model.ProcessingResult{OriginalKey: originalKey, BlurredKey: blurredKey})
}

func (s *relayService) ReceiveWorkerResult(result model.ProcessingResult) {
	if result.Error != "" {
		logging.Warn().Str("original_key", result.OriginalKey).Str("worker_error", result.Error).Msg("worker reported a processing failure")
		s.notifier.Broadcast(relay.NewProcessingError(result.OriginalKey, result.Error))
		return
	}
	s.notifier.Broadcast(relay.NewImageBlurred(result.BlurredKey, result.OriginalKey))
}
