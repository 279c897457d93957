package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"readwatch/internal/canonical"
	"readwatch/internal/logger"
	"readwatch/internal/metrics"
	"readwatch/internal/model"
	"readwatch/internal/repository"
	"readwatch/internal/summarizer"
)

// Ingest result statuses.
const (
	IngestCreated        = "created"
	IngestAlreadyTracked = "already_tracked"
)

// IngestRequest is one bookmark submission for an already resolved owner.
type IngestRequest struct {
	OwnerID int64
	Title   string
	URL     string
	Type    string
}

// IngestResult is either a newly created item or the existing item the
// submission duplicated.
type IngestResult struct {
	Status string
	Item   *model.Item
}

// InflightGuard collapses concurrent identical submissions. Implemented by
// *cache.InflightGuard.
type InflightGuard interface {
	Acquire(ctx context.Context, ownerID int64, url string) (release func(), acquired bool)
	WaitReleased(ctx context.Context, ownerID int64, url string, maxWait time.Duration) bool
}

type IngestService struct {
	itemRepo     repository.ItemRepository
	summarizer   summarizer.Summarizer
	guard        InflightGuard
	inflightWait time.Duration
	log          logger.Logger
}

// NewIngestService wires the pipeline. guard may be nil.
func NewIngestService(
	itemRepo repository.ItemRepository,
	sum summarizer.Summarizer,
	guard InflightGuard,
	inflightWait time.Duration,
	log logger.Logger,
) *IngestService {
	return &IngestService{
		itemRepo:     itemRepo,
		summarizer:   sum,
		guard:        guard,
		inflightWait: inflightWait,
		log:          log,
	}
}

// Ingest validates, canonicalizes, deduplicates, summarizes and stores one
// bookmark. It fails only on invalid input or an unexpected store error; a
// failed summary still produces an item with a placeholder summary.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		metrics.ObserveIngest("invalid")
		return nil, model.ErrTitleRequired
	}
	if len(title) > model.MaxItemTitleLength {
		metrics.ObserveIngest("invalid")
		return nil, model.ErrTitleTooLong
	}

	rawURL := strings.TrimSpace(req.URL)
	itemType := strings.ToLower(strings.TrimSpace(req.Type))
	if itemType == "" {
		itemType = canonical.InferType(rawURL)
	}
	if !model.IsValidItemType(itemType) {
		metrics.ObserveIngest("invalid")
		return nil, model.ErrInvalidItemType
	}

	canonicalURL := canonical.Canonicalize(rawURL)
	log := s.log.With(logger.Int64("owner_id", req.OwnerID), logger.String("url", canonicalURL))

	if canonicalURL != "" {
		existing, err := s.findExisting(ctx, req.OwnerID, canonicalURL)
		if err != nil {
			metrics.ObserveIngest("error")
			return nil, err
		}
		if existing != nil {
			metrics.ObserveIngest(IngestAlreadyTracked)
			return &IngestResult{Status: IngestAlreadyTracked, Item: existing}, nil
		}

		if s.guard != nil {
			release, acquired := s.guard.Acquire(ctx, req.OwnerID, canonicalURL)
			defer release()
			if !acquired {
				log.Debug("identical submission in flight, waiting")
				if s.guard.WaitReleased(ctx, req.OwnerID, canonicalURL, s.inflightWait) {
					existing, err := s.findExisting(ctx, req.OwnerID, canonicalURL)
					if err != nil {
						metrics.ObserveIngest("error")
						return nil, err
					}
					if existing != nil {
						metrics.ObserveIngest(IngestAlreadyTracked)
						return &IngestResult{Status: IngestAlreadyTracked, Item: existing}, nil
					}
				}
			}
		}
	}

	start := time.Now()
	outcome := s.summarizer.RequestSummary(ctx, title, rawURL, itemType)
	metrics.ObserveSummary(outcome.Status, time.Since(start))

	summary := outcome.SummaryText()
	item := &model.Item{
		OwnerID: req.OwnerID,
		Title:   title,
		URL:     canonicalURL,
		Type:    itemType,
		Summary: &summary,
	}

	// The summary has been paid for; a client that hung up meanwhile must not
	// lose the row.
	storeCtx := context.WithoutCancel(ctx)

	err := s.itemRepo.Create(storeCtx, item)
	if errors.Is(err, model.ErrItemAlreadyTracked) {
		existing, findErr := s.findExisting(storeCtx, req.OwnerID, canonicalURL)
		if findErr != nil {
			metrics.ObserveIngest("error")
			return nil, findErr
		}
		if existing != nil {
			log.Info("lost insert race, returning existing item", logger.Int64("item_id", existing.ID))
			metrics.ObserveIngest(IngestAlreadyTracked)
			return &IngestResult{Status: IngestAlreadyTracked, Item: existing}, nil
		}
		err = fmt.Errorf("conflicting item vanished: %w", err)
	}
	if err != nil {
		metrics.ObserveIngest("error")
		return nil, fmt.Errorf("create item: %w", err)
	}

	log.Info("item created",
		logger.Int64("item_id", item.ID),
		logger.String("type", itemType),
		logger.String("summary_status", outcome.Status),
	)
	metrics.ObserveIngest(IngestCreated)
	return &IngestResult{Status: IngestCreated, Item: item}, nil
}

// findExisting returns nil, nil when the owner has no item with url.
func (s *IngestService) findExisting(ctx context.Context, ownerID int64, url string) (*model.Item, error) {
	item, err := s.itemRepo.FindByOwnerAndURL(ctx, ownerID, url)
	if errors.Is(err, model.ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	return item, nil
}
