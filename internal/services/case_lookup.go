package services

import (
	"context"
	"sync"
	"time"

	"civicserve-backend/internal/models"
	"civicserve-backend/internal/transformers"
	"civicserve-backend/internal/validators"
	"civicserve-backend/pkg/batch"
	"civicserve-backend/pkg/cache"
	"civicserve-backend/pkg/metrics"
)

// Open311API is the slice of the Open311 client the case service depends on.
type Open311API interface {
	Services(ctx context.Context) ([]models.ServiceType, error)
	ServiceMetadata(ctx context.Context, code string) (*models.ServiceMetadata, error)
	Requests(ctx context.Context, ids []string) (map[string]*models.ServiceCase, error)
	CreateRequest(ctx context.Context, args *models.CreateCaseArgs) (*models.ServiceCase, error)
}

// CaseIndex is the search-index side of case lookup.
type CaseIndex interface {
	SearchCases(ctx context.Context, query string, bbox *models.BoundingBox) ([]models.IndexedCase, error)
}

// caseLoaderTTL bounds how long a resolved case may be served from the
// coalescing loader. Cases change status upstream, so the loader is rotated
// rather than cached indefinitely.
const caseLoaderTTL = 10 * time.Second

// serviceCatalogKey is the single loader key for the whole service catalog.
const serviceCatalogKey = "catalog"

// CaseLookupService reads and creates service requests against the Open311
// upstream. Concurrent lookups for the same case are coalesced into one
// bulk call; the service catalog and per-code metadata have no bulk
// endpoint, so their loaders coalesce load-once-dispatch-many instead.
type CaseLookupService struct {
	api       Open311API
	index     CaseIndex
	addrTrans transformers.AddressTransformer
	validator validators.CaseValidator

	mu              sync.Mutex
	caseLoader      *batch.Loader[string, *models.ServiceCase]
	caseLoaderBorn  time.Time
	catalogLoader   *batch.Loader[string, []models.ServiceType]
	metadataLoader  *batch.Loader[string, *models.ServiceMetadata]
	definitionsBorn time.Time
}

func NewCaseLookupService(api Open311API, index CaseIndex, addrTrans transformers.AddressTransformer, validator validators.CaseValidator) *CaseLookupService {
	s := &CaseLookupService{
		api:       api,
		index:     index,
		addrTrans: addrTrans,
		validator: validator,
	}
	now := time.Now()
	s.caseLoader = s.newCaseLoader()
	s.caseLoaderBorn = now
	s.catalogLoader = s.newCatalogLoader()
	s.metadataLoader = s.newMetadataLoader()
	s.definitionsBorn = now
	return s
}

func (s *CaseLookupService) newCaseLoader() *batch.Loader[string, *models.ServiceCase] {
	return batch.NewLoader(0, func(ctx context.Context, ids []string) (map[string]*models.ServiceCase, error) {
		metrics.BatchLoadsTotal.WithLabelValues("cases").Inc()
		return s.api.Requests(ctx, ids)
	})
}

// newCatalogLoader fetches the full service list once per batch window; the
// shared cache is consulted inside the fetch so a loader-cached catalog
// never touches redis at all.
func (s *CaseLookupService) newCatalogLoader() *batch.Loader[string, []models.ServiceType] {
	return batch.NewLoader(0, func(ctx context.Context, keys []string) (map[string][]models.ServiceType, error) {
		metrics.BatchLoadsTotal.WithLabelValues("service_catalog").Inc()

		var services []models.ServiceType
		if !cache.Get(ctx, cache.ServiceListKey(), &services) {
			var err error
			services, err = s.api.Services(ctx)
			if err != nil {
				return nil, err
			}
			_ = cache.Set(ctx, cache.ServiceListKey(), services, cache.ServiceListTTL)
		}
		return map[string][]models.ServiceType{serviceCatalogKey: services}, nil
	})
}

func (s *CaseLookupService) newMetadataLoader() *batch.Loader[string, *models.ServiceMetadata] {
	return batch.NewLoader(0, func(ctx context.Context, codes []string) (map[string]*models.ServiceMetadata, error) {
		metrics.BatchLoadsTotal.WithLabelValues("service_metadata").Inc()

		found := make(map[string]*models.ServiceMetadata, len(codes))
		for _, code := range codes {
			var cached models.ServiceMetadata
			if cache.Get(ctx, cache.ServiceMetadataKey(code), &cached) {
				found[code] = &cached
				continue
			}
			metadata, err := s.api.ServiceMetadata(ctx, code)
			if err != nil {
				return nil, err
			}
			if metadata != nil {
				_ = cache.Set(ctx, cache.ServiceMetadataKey(code), metadata, cache.ServiceListTTL)
			}
			found[code] = metadata
		}
		return found, nil
	})
}

// currentCaseLoader returns the live case loader, rotating it once its
// cache has aged out so upstream status changes become visible.
func (s *CaseLookupService) currentCaseLoader() *batch.Loader[string, *models.ServiceCase] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.caseLoaderBorn) > caseLoaderTTL {
		s.caseLoader = s.newCaseLoader()
		s.caseLoaderBorn = time.Now()
	}
	return s.caseLoader
}

// definitionLoaders returns the catalog and metadata loaders, rotated on
// the same interval the shared cache uses so service definitions refresh
// even without redis.
func (s *CaseLookupService) definitionLoaders() (*batch.Loader[string, []models.ServiceType], *batch.Loader[string, *models.ServiceMetadata]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.definitionsBorn) > cache.ServiceListTTL {
		s.catalogLoader = s.newCatalogLoader()
		s.metadataLoader = s.newMetadataLoader()
		s.definitionsBorn = time.Now()
	}
	return s.catalogLoader, s.metadataLoader
}

// Case looks up one service request by its public case number. Returns
// (nil, nil) when the upstream has no such case. Concurrent lookups within
// the batch window share a single bulk upstream call.
func (s *CaseLookupService) Case(ctx context.Context, id string) (*models.ServiceCase, error) {
	return s.currentCaseLoader().Load(ctx, id)
}

// SearchCases runs a text and/or bounding-box query against the case index.
func (s *CaseLookupService) SearchCases(ctx context.Context, query string, bbox *models.BoundingBox) ([]models.IndexedCase, error) {
	return s.index.SearchCases(ctx, query, bbox)
}

// Services returns the catalog of reportable service types. Concurrent
// callers share one fetch; the catalog changes on the order of months.
func (s *CaseLookupService) Services(ctx context.Context) ([]models.ServiceType, error) {
	catalog, _ := s.definitionLoaders()
	return catalog.Load(ctx, serviceCatalogKey)
}

// Service returns one service type by code, or nil when the catalog has no
// such code.
func (s *CaseLookupService) Service(ctx context.Context, code string) (*models.ServiceType, error) {
	services, err := s.Services(ctx)
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].Code == code {
			return &services[i], nil
		}
	}
	return nil, nil
}

// ServiceMetadata returns the attribute form for one service code, or nil
// when the service defines no metadata. Concurrent lookups for the same
// code share one upstream fetch.
func (s *CaseLookupService) ServiceMetadata(ctx context.Context, code string) (*models.ServiceMetadata, error) {
	_, metadata := s.definitionLoaders()
	return metadata.Load(ctx, code)
}

// CreateCase validates and submits a new service request, returning the case
// as the upstream recorded it. The submitted args are not mutated.
func (s *CaseLookupService) CreateCase(ctx context.Context, args *models.CreateCaseArgs) (*models.ServiceCase, error) {
	if err := s.validator.ValidateCreate(args); err != nil {
		return nil, err
	}

	submitted := *args
	if submitted.Phone != "" {
		submitted.Phone = s.addrTrans.NormalizePhone(submitted.Phone)
	}
	return s.api.CreateRequest(ctx, &submitted)
}
