package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-portal-api/internal/models"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

type studentProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.StudentProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.StudentProfile, error)
	CreateIfAbsent(ctx context.Context, profile *models.StudentProfile) (bool, error)
}

type accountStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type identityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// departmentCodes maps free-text account departments to profile codes.
var departmentCodes = map[string]string{
	"computer science":        "CS",
	"software engineering":    "SE",
	"information technology":  "IT",
	"data science":            "DS",
	"artificial intelligence": "AI",
	"cyber security":          "CYS",
	"electrical engineering":  "EE",
	"business administration": "BBA",
}

var semesterWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4,
	"fifth": 5, "sixth": 6, "seventh": 7, "eighth": 8,
}

// IdentityResolver merges the generic account and the detailed student
// profile into one view. Profiles win; accounts are a read-only fallback.
type IdentityResolver struct {
	profiles studentProfileStore
	accounts accountStore
	cache    identityCache
	cacheTTL time.Duration
	audit    auditLogger
	logger   *zap.Logger
}

// IdentityResolverOption configures the resolver.
type IdentityResolverOption func(*IdentityResolver)

// WithIdentityCache caches resolved identities for ttl.
func WithIdentityCache(cache identityCache, ttl time.Duration) IdentityResolverOption {
	return func(r *IdentityResolver) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

// WithIdentityAudit records profile materialization in the audit trail.
func WithIdentityAudit(audit auditLogger) IdentityResolverOption {
	return func(r *IdentityResolver) {
		r.audit = audit
	}
}

// NewIdentityResolver constructs the resolver.
func NewIdentityResolver(profiles studentProfileStore, accounts accountStore, logger *zap.Logger, opts ...IdentityResolverOption) *IdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &IdentityResolver{profiles: profiles, accounts: accounts, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve looks up a student by profile id or account id.
func (r *IdentityResolver) Resolve(ctx context.Context, id string) (*models.StudentIdentity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	key := identityIDKey(id)
	if cached := r.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	profile, err := r.profiles.GetByID(ctx, id)
	switch {
	case err == nil:
		identity := identityFromProfile(profile)
		r.toCache(ctx, key, identity)
		return identity, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load student profile")
	}

	account, err := r.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student account")
	}
	if account.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	// The profile may exist under a different id with the same email.
	if profile, err := r.profiles.GetByEmail(ctx, account.Email); err == nil {
		identity := identityFromProfile(profile)
		identity.AccountID = account.ID
		r.toCache(ctx, key, identity)
		return identity, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load student profile")
	}

	identity := identityFromAccount(account)
	r.toCache(ctx, key, identity)
	return identity, nil
}

// ResolveByEmail looks up a student by case-insensitive email.
func (r *IdentityResolver) ResolveByEmail(ctx context.Context, email string) (*models.StudentIdentity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	key := identityEmailKey(email)
	if cached := r.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	profile, err := r.profiles.GetByEmail(ctx, email)
	switch {
	case err == nil:
		identity := identityFromProfile(profile)
		r.toCache(ctx, key, identity)
		return identity, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load student profile")
	}

	account, err := r.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student account")
	}
	if account.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	identity := identityFromAccount(account)
	r.toCache(ctx, key, identity)
	return identity, nil
}

// Materialize creates the detailed profile for a student account on first
// write. Later calls return the existing profile unchanged.
func (r *IdentityResolver) Materialize(ctx context.Context, account *models.User) (*models.StudentIdentity, error) {
	if account == nil || account.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only student accounts have profiles")
	}

	existing, err := r.profiles.GetByEmail(ctx, account.Email)
	if err == nil {
		identity := identityFromProfile(existing)
		identity.AccountID = account.ID
		return identity, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load student profile")
	}

	view := identityFromAccount(account)
	accountID := account.ID
	profile := &models.StudentProfile{
		ID:           account.ID,
		UserID:       &accountID,
		Email:        strings.ToLower(strings.TrimSpace(account.Email)),
		FullName:     account.FullName,
		Department:   view.Department,
		Semester:     view.Semester,
		SupervisorID: account.SupervisorID,
	}
	created, err := r.profiles.CreateIfAbsent(ctx, profile)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create student profile")
	}
	if !created {
		// Lost a race with a concurrent materialization.
		existing, err := r.profiles.GetByEmail(ctx, account.Email)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load student profile")
		}
		profile = existing
	} else {
		r.recordMaterialized(ctx, profile)
	}

	r.evict(ctx, account.ID, account.Email)
	identity := identityFromProfile(profile)
	identity.AccountID = account.ID
	return identity, nil
}

// MaterializeByID loads the account and materializes its profile.
func (r *IdentityResolver) MaterializeByID(ctx context.Context, accountID string) (*models.StudentIdentity, error) {
	if profile, err := r.profiles.GetByID(ctx, accountID); err == nil {
		identity := identityFromProfile(profile)
		identity.AccountID = accountID
		return identity, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student account")
	}
	return r.Materialize(ctx, account)
}

func (r *IdentityResolver) recordMaterialized(ctx context.Context, profile *models.StudentProfile) {
	r.logger.Info("student profile materialized", zap.String("profile_id", profile.ID))
	if r.audit == nil {
		return
	}
	payload, _ := json.Marshal(profile)
	if err := r.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     profile.UserID,
		Action:     models.AuditActionStudentProfileMigrated,
		Resource:   "student_profile",
		ResourceID: &profile.ID,
		NewValues:  payload,
	}); err != nil {
		r.logger.Warn("failed to record profile audit", zap.Error(err))
	}
}

func (r *IdentityResolver) fromCache(ctx context.Context, key string) *models.StudentIdentity {
	if r.cache == nil {
		return nil
	}
	var identity models.StudentIdentity
	hit, err := r.cache.Get(ctx, key, &identity)
	if err != nil || !hit {
		return nil
	}
	return &identity
}

func (r *IdentityResolver) toCache(ctx context.Context, key string, identity *models.StudentIdentity) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, identity, r.cacheTTL); err != nil {
		r.logger.Warn("failed to cache identity", zap.String("key", key), zap.Error(err))
	}
}

func (r *IdentityResolver) evict(ctx context.Context, id, email string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, identityIDKey(id), identityEmailKey(email)); err != nil {
		r.logger.Warn("failed to evict identity", zap.String("id", id), zap.Error(err))
	}
}

func identityIDKey(id string) string {
	return "identity:id:" + id
}

func identityEmailKey(email string) string {
	return "identity:email:" + strings.ToLower(strings.TrimSpace(email))
}

func identityFromProfile(p *models.StudentProfile) *models.StudentIdentity {
	identity := &models.StudentIdentity{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		RollNumber:   p.RollNumber,
		Department:   p.Department,
		Semester:     p.Semester,
		SupervisorID: p.SupervisorID,
		Source:       models.IdentitySourceProfile,
	}
	if p.UserID != nil {
		identity.AccountID = *p.UserID
	}
	return identity
}

func identityFromAccount(u *models.User) *models.StudentIdentity {
	identity := &models.StudentIdentity{
		ID:           u.ID,
		AccountID:    u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		SupervisorID: u.SupervisorID,
		Source:       models.IdentitySourceAccount,
	}
	if u.Department != nil {
		identity.Department = DepartmentCode(*u.Department)
	}
	if u.Semester != nil {
		identity.Semester = SemesterNumber(*u.Semester)
	}
	return identity
}

// DepartmentCode converts a free-text department name to its profile code.
// Unknown names are upper-cased as-is.
func DepartmentCode(raw string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if normalized == "" {
		return ""
	}
	if code, ok := departmentCodes[normalized]; ok {
		return code
	}
	return strings.ToUpper(normalized)
}

// SemesterNumber parses semester text such as "5", "5th", "Semester 5" or
// "fifth". It returns 0 when the text cannot be interpreted.
func SemesterNumber(raw string) int {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = strings.TrimSpace(strings.TrimPrefix(text, "semester"))
	text = strings.TrimSpace(strings.TrimSuffix(text, "semester"))
	if n, ok := semesterWords[text]; ok {
		return n
	}
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		text = strings.TrimSuffix(text, suffix)
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > 12 {
		return 0
	}
	return n
}
