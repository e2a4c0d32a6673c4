package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/models"
	appErrors "github.com/noah-isme/campus-ledger-api/pkg/errors"
	"github.com/noah-isme/campus-ledger-api/pkg/export"
	"github.com/noah-isme/campus-ledger-api/pkg/jobs"
	"github.com/noah-isme/campus-ledger-api/pkg/logger"
	"github.com/noah-isme/campus-ledger-api/pkg/storage"
)

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type reportRenderer interface {
	Export(ctx context.Context, reportType models.ReportType, filter models.ReportFilter, format string) (*export.Document, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportRequest asks for a report to be rendered in the background.
type ExportRequest struct {
	Format     string `json:"format"`
	SemesterID string `json:"semester_id"`
	OfferingID string `json:"offering_id"`
}

// ExportDownload is an opened export ready to stream.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

type exportEntry struct {
	job         models.ExportJob
	relPath     string
	token       string
	contentType string
}

// ExportService runs report exports on the job queue, stores the rendered
// files and hands out signed download links.
type ExportService struct {
	reports reportRenderer
	storage fileStorage
	signer  *storage.SignedURLSigner
	queue   jobDispatcher
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time

	mu      sync.RWMutex
	entries map[string]*exportEntry
}

// NewExportService constructs an ExportService. The queue is attached with
// UseQueue because the queue's handler is the service itself.
func NewExportService(reports reportRenderer, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		reports: reports,
		storage: store,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*exportEntry),
	}
}

// UseQueue attaches the dispatcher CreateJob enqueues onto.
func (s *ExportService) UseQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request and queues the export.
func (s *ExportService) CreateJob(ctx context.Context, actor Actor, reportType models.ReportType, req ExportRequest) (*models.ExportJob, error) {
	if !reportType.Valid() {
		return nil, appErrors.Validation("unknown report type %q", reportType)
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Validation("%s", err.Error())
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "background exports are disabled")
	}

	job := models.ExportJob{
		ID:        uuid.NewString(),
		Type:      reportType,
		Format:    string(format),
		Filter:    models.ReportFilter{SemesterID: req.SemesterID, OfferingID: req.OfferingID},
		Status:    models.ExportStatusQueued,
		CreatedBy: actor.ID,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.entries[job.ID] = &exportEntry{job: job}
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.fail(job.ID, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	logger.FromContext(ctx, s.logger).Info("export queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.String("format", job.Format))
	return &job, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(ctx context.Context, id string) (*models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, appErrors.NotFound("export job")
	}
	job := entry.job
	return &job, nil
}

// Handle renders one queued export. It is the queue's job handler; a returned
// error makes the queue retry.
func (s *ExportService) Handle(ctx context.Context, qj jobs.Job) error {
	job, ok := s.transition(qj.ID, models.ExportStatusProcessing)
	if !ok {
		return nil
	}

	doc, err := s.reports.Export(ctx, job.Type, job.Filter, job.Format)
	if err != nil {
		if appErrors.IsValidation(err) {
			s.fail(job.ID, appErrors.FromError(err).Message)
			return nil
		}
		return err
	}
	relPath, err := s.storage.Save(job.ID+"/"+doc.Filename, doc.Body)
	if err != nil {
		return err
	}
	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return err
	}

	finished := s.now().UTC()
	s.mu.Lock()
	if entry, ok := s.entries[job.ID]; ok {
		entry.relPath = relPath
		entry.token = token
		entry.contentType = doc.ContentType
		entry.job.Status = models.ExportStatusFinished
		entry.job.FinishedAt = &finished
		entry.job.ExpiresAt = &expiresAt
		entry.job.ResultURL = strings.TrimRight(s.cfg.APIPrefix, "/") + "/exports/download/" + token
		entry.job.ErrorMessage = ""
	}
	s.mu.Unlock()
	s.logger.Info("export finished", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(doc.Body)))
	return nil
}

// GiveUp marks a job failed once the queue stops retrying it.
func (s *ExportService) GiveUp(qj jobs.Job, err error) {
	s.fail(qj.ID, err.Error())
}

// ResolveDownload validates a download token and opens the export it names.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claims, err := s.signer.Verify(token, false)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, appErrors.Forbidden("download link expired")
	case err != nil:
		return nil, appErrors.Forbidden("invalid download link")
	}

	s.mu.RLock()
	entry, ok := s.entries[claims.JobID]
	var snapshot exportEntry
	if ok {
		snapshot = *entry
	}
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.NotFound("export job")
	}
	if snapshot.token != token || snapshot.relPath != claims.RelPath {
		return nil, appErrors.Forbidden("invalid download link")
	}
	if snapshot.job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "export is not ready")
	}

	file, err := s.storage.Open(snapshot.relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	name := snapshot.relPath[strings.LastIndex(snapshot.relPath, "/")+1:]
	return &ExportDownload{File: file, Filename: name, ContentType: snapshot.contentType}, nil
}

// Cleanup forgets finished or failed jobs older than the result TTL and
// deletes their files. It returns the number of jobs removed.
func (s *ExportService) Cleanup() int {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	var expired []exportEntry
	s.mu.Lock()
	for id, entry := range s.entries {
		if entry.job.FinishedAt == nil || entry.job.FinishedAt.After(cutoff) {
			continue
		}
		expired = append(expired, *entry)
		delete(s.entries, id)
	}
	s.mu.Unlock()

	for _, entry := range expired {
		if entry.relPath == "" {
			continue
		}
		if err := s.storage.Delete(entry.relPath); err != nil {
			s.logger.Warn("cleanup delete failed", zap.String("job_id", entry.job.ID), zap.Error(err))
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
	return len(expired)
}

// StartCleanup runs Cleanup every CleanupInterval until ctx is done.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					s.logger.Info("expired exports removed", zap.Int("jobs", n))
				}
			}
		}
	}()
}

func (s *ExportService) transition(id string, status models.ExportStatus) (models.ExportJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.job.Status == models.ExportStatusFinished || entry.job.Status == models.ExportStatusFailed {
		return models.ExportJob{}, false
	}
	entry.job.Status = status
	return entry.job, true
}

func (s *ExportService) fail(id, message string) {
	finished := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return
	}
	entry.job.Status = models.ExportStatusFailed
	entry.job.ErrorMessage = message
	entry.job.FinishedAt = &finished
	s.logger.Warn("export failed", zap.String("job_id", id), zap.String("error", message))
}

var _ reportRenderer = (*ReportService)(nil)
