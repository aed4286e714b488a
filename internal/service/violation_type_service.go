package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/leebenson/conform"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/hrm-case-api/internal/dto"
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

const catalogKey = "approved"

type violationTypeStore interface {
	List(ctx context.Context, includePending bool) ([]models.ViolationType, error)
	FindByTerms(ctx context.Context, terms []string) ([]models.ViolationType, error)
	Create(ctx context.Context, vt *models.ViolationType) error
	Approve(ctx context.Context, id string, at time.Time) error
	Reject(ctx context.Context, id string) error
}

// ViolationTypeService manages the bilingual violation catalog and resolves free-text terms to labels.
type ViolationTypeService struct {
	repo      violationTypeStore
	catalog   *expirable.LRU[string, []models.ViolationType]
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewViolationTypeService constructs the service; approved entries are memoised for ttl.
func NewViolationTypeService(repo violationTypeStore, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *ViolationTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ViolationTypeService{
		repo:      repo,
		catalog:   expirable.NewLRU[string, []models.ViolationType](1, nil, ttl),
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns approved entries; admins also see pending suggestions.
func (s *ViolationTypeService) List(ctx context.Context, actor *models.JWTClaims) ([]models.ViolationType, error) {
	if isAdmin(actor) {
		types, err := s.repo.List(ctx, true)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violation types")
		}
		return types, nil
	}
	return s.approved(ctx)
}

// Suggest adds a catalog entry. Suggestions stay pending until an admin approves them; admin entries are published directly.
func (s *ViolationTypeService) Suggest(ctx context.Context, req dto.SuggestViolationTypeRequest, actor *models.JWTClaims) (*models.ViolationType, error) {
	if err := Authorize(actor, CapSuggestViolation); err != nil {
		return nil, err
	}
	if err := conform.Strings(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid violation type")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid violation type")
	}
	code := violationCode(req.NamePrimary)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name_primary must contain letters or digits")
	}

	now := s.now().UTC()
	suggestedBy := actor.UserID
	vt := &models.ViolationType{
		ID:            uuid.NewString(),
		Code:          code,
		NamePrimary:   req.NamePrimary,
		NameSecondary: req.NameSecondary,
		Pending:       !isAdmin(actor),
		SuggestedBy:   &suggestedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, vt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, appErrors.Clone(appErrors.ErrConflict, "violation type "+code+" already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create violation type")
	}
	if !vt.Pending {
		s.catalog.Purge()
	}
	return vt, nil
}

// Review approves or discards a pending suggestion.
func (s *ViolationTypeService) Review(ctx context.Context, id string, approve bool, actor *models.JWTClaims) error {
	if err := Authorize(actor, CapReviewViolationType); err != nil {
		return err
	}
	var err error
	if approve {
		err = s.repo.Approve(ctx, id, s.now().UTC())
	} else {
		err = s.repo.Reject(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pending violation type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review violation type")
	}
	s.catalog.Purge()
	return nil
}

// Resolve maps free-text terms to catalog labels by code or either name.
// Terms absent from the catalog are kept as primary-only labels.
func (s *ViolationTypeService) Resolve(ctx context.Context, terms []string) (models.ViolationLabels, error) {
	terms = normalizeTerms(terms)
	labels := make(models.ViolationLabels, 0, len(terms))
	if len(terms) == 0 {
		return labels, nil
	}
	catalog, err := s.approved(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, term := range terms {
		if label, ok := matchLabel(catalog, term); ok {
			labels = append(labels, label)
			continue
		}
		missing = append(missing, term)
	}
	if len(missing) == 0 {
		return dedupeLabels(labels), nil
	}

	fresh, err := s.repo.FindByTerms(ctx, missing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve violation types")
	}
	if len(fresh) > 0 {
		s.catalog.Purge()
	}
	for _, term := range missing {
		if label, ok := matchLabel(fresh, term); ok {
			labels = append(labels, label)
			continue
		}
		s.logger.Debug("violation term not in catalog", zap.String("term", term))
		labels = append(labels, models.ViolationLabel{Code: violationCode(term), Primary: term})
	}
	return dedupeLabels(labels), nil
}

func (s *ViolationTypeService) approved(ctx context.Context) ([]models.ViolationType, error) {
	if cached, ok := s.catalog.Get(catalogKey); ok {
		return cached, nil
	}
	types, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violation types")
	}
	if types == nil {
		types = []models.ViolationType{}
	}
	s.catalog.Add(catalogKey, types)
	return types, nil
}

func matchLabel(catalog []models.ViolationType, term string) (models.ViolationLabel, bool) {
	for _, vt := range catalog {
		if label := vt.Label(); label.Matches(term) {
			return label, true
		}
	}
	for _, vt := range catalog {
		if strings.EqualFold(vt.Code, term) || strings.EqualFold(vt.NamePrimary, term) || strings.EqualFold(vt.NameSecondary, term) {
			return vt.Label(), true
		}
	}
	return models.ViolationLabel{}, false
}

func dedupeLabels(labels models.ViolationLabels) models.ViolationLabels {
	seen := make(map[string]struct{}, len(labels))
	out := labels[:0]
	for _, l := range labels {
		if _, ok := seen[l.Code]; ok {
			continue
		}
		seen[l.Code] = struct{}{}
		out = append(out, l)
	}
	return out
}

// violationCode derives a snake_case code from a label.
func violationCode(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
