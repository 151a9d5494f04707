package services

import (
	"fmt"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/media"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/observability/logging"
	"github.com/pressroomhq/pressroom-go/internal/infrastructure/security"
)

// AdminService carries the write surface for ad placements and feature
// flags. Every successful write invalidates the caches the change can
// affect, so admin edits become visible without waiting out a TTL.
type AdminService struct {
	placements repositories.AdPlacementRepository
	flagRepo   repositories.FlagRepository
	creatives  *media.CreativeProcessor
	adService  *AdService
	flagSvc    *FlagService
	logger     *logging.ChanneledLogger
}

// NewAdminService creates a new admin write service.
func NewAdminService(
	placements repositories.AdPlacementRepository,
	flagRepo repositories.FlagRepository,
	creatives *media.CreativeProcessor,
	adService *AdService,
	flagSvc *FlagService,
	logger *logging.ChanneledLogger,
) *AdminService {
	return &AdminService{
		placements: placements,
		flagRepo:   flagRepo,
		creatives:  creatives,
		adService:  adService,
		flagSvc:    flagSvc,
		logger:     logger,
	}
}

// ListPlacements returns every placement record including drafts.
func (s *AdminService) ListPlacements() ([]*ads.AdPlacement, error) {
	return s.placements.FindAll()
}

// GetPlacement returns one placement by id.
func (s *AdminService) GetPlacement(id string) (*ads.AdPlacement, error) {
	return s.placements.FindByID(id)
}

// CreatePlacement stores a new placement. Uploads maps slot shapes to
// base64-encoded creative images; each is fitted to its slot dimensions and
// stored, and the resulting URLs land on the placement before the insert.
func (s *AdminService) CreatePlacement(placement *ads.AdPlacement, uploads map[ads.SlotType]string) (*ads.AdPlacement, error) {
	if placement.Title == "" {
		return nil, fmt.Errorf("placement title is required")
	}
	if placement.ID == "" {
		placement.ID = security.GenerateULID()
	}
	if placement.Status == "" {
		placement.Status = ads.StatusDraft
	}

	if err := s.attachCreatives(placement, uploads); err != nil {
		return nil, err
	}

	if err := s.placements.Create(placement); err != nil {
		return nil, fmt.Errorf("failed to create placement: %w", err)
	}

	s.adService.InvalidatePositions()
	if s.logger != nil {
		s.logger.Ads().Info("Placement created", "id", placement.ID, "title", placement.Title)
	}
	return placement, nil
}

// UpdatePlacement applies changes to an existing placement. New uploads
// replace the creative for their slot; slots without an upload keep their
// stored creative.
func (s *AdminService) UpdatePlacement(placement *ads.AdPlacement, uploads map[ads.SlotType]string) (*ads.AdPlacement, error) {
	if placement.ID == "" {
		return nil, fmt.Errorf("placement id is required")
	}

	if err := s.attachCreatives(placement, uploads); err != nil {
		return nil, err
	}

	if err := s.placements.Update(placement); err != nil {
		return nil, fmt.Errorf("failed to update placement: %w", err)
	}

	s.adService.InvalidatePositions()
	if s.logger != nil {
		s.logger.Ads().Info("Placement updated", "id", placement.ID)
	}
	return placement, nil
}

// DeletePlacement removes a placement and its stored creatives.
func (s *AdminService) DeletePlacement(id string) error {
	if err := s.placements.Delete(id); err != nil {
		return err
	}

	if s.creatives != nil {
		if err := s.creatives.RemoveCreatives(id); err != nil && s.logger != nil {
			s.logger.Ads().Warn("Failed to remove creatives", "id", id, "error", err.Error())
		}
	}

	s.adService.InvalidatePositions()
	if s.logger != nil {
		s.logger.Ads().Info("Placement deleted", "id", id)
	}
	return nil
}

func (s *AdminService) attachCreatives(placement *ads.AdPlacement, uploads map[ads.SlotType]string) error {
	if len(uploads) == 0 {
		return nil
	}
	if s.creatives == nil {
		return fmt.Errorf("creative processing is not configured")
	}

	if placement.Creatives == nil {
		placement.Creatives = make(map[ads.SlotType]string, len(uploads))
	}
	for slot, data := range uploads {
		url, err := s.creatives.ProcessCreative(data, placement.ID, slot)
		if err != nil {
			return fmt.Errorf("failed to process %s creative: %w", string(slot), err)
		}
		placement.Creatives[slot] = url
	}
	return nil
}

// ListFlags returns every feature flag.
func (s *AdminService) ListFlags() ([]*flags.FeatureFlag, error) {
	return s.flagRepo.GetAllFlags()
}

// UpsertFlag creates or replaces a feature flag and drops the flag cache.
func (s *AdminService) UpsertFlag(flag *flags.FeatureFlag) error {
	if flag.Key == "" {
		return fmt.Errorf("flag key is required")
	}

	if err := s.flagRepo.Upsert(flag); err != nil {
		return fmt.Errorf("failed to upsert flag: %w", err)
	}

	s.flagSvc.Invalidate()
	if s.logger != nil {
		s.logger.Content().Info("Flag upserted", "key", flag.Key, "enabled", flag.Enabled)
	}
	return nil
}

// DeleteFlag removes a feature flag and drops the flag cache.
func (s *AdminService) DeleteFlag(key string) error {
	if err := s.flagRepo.Delete(key); err != nil {
		return err
	}

	s.flagSvc.Invalidate()
	if s.logger != nil {
		s.logger.Content().Info("Flag deleted", "key", key)
	}
	return nil
}
