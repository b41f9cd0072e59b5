package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-portal-api/internal/models"
	appErrors "github.com/noah-isme/internship-portal-api/pkg/errors"
)

type profileStoreStub struct {
	profiles map[string]*models.StudentProfile
	creates  int
}

func newProfileStoreStub(profiles ...*models.StudentProfile) *profileStoreStub {
	stub := &profileStoreStub{profiles: make(map[string]*models.StudentProfile)}
	for _, p := range profiles {
		stub.profiles[p.ID] = p
	}
	return stub
}

func (s *profileStoreStub) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	for _, p := range s.profiles {
		if p.ID == id || (p.UserID != nil && *p.UserID == id) {
			copy := *p
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *profileStoreStub) GetByEmail(ctx context.Context, email string) (*models.StudentProfile, error) {
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			copy := *p
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *profileStoreStub) CreateIfAbsent(ctx context.Context, profile *models.StudentProfile) (bool, error) {
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, profile.Email) {
			return false, nil
		}
	}
	s.creates++
	copy := *profile
	s.profiles[profile.ID] = &copy
	return true, nil
}

type accountStoreStub struct {
	users map[string]*models.User
}

func newAccountStoreStub(users ...*models.User) *accountStoreStub {
	stub := &accountStoreStub{users: make(map[string]*models.User)}
	for _, u := range users {
		stub.users[u.ID] = u
	}
	return stub
}

func (s *accountStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *accountStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type identityCacheStub struct {
	entries map[string]models.StudentIdentity
	deleted []string
}

func (c *identityCacheStub) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	entry, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*models.StudentIdentity)) = entry
	return true, nil
}

func (c *identityCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.entries[key] = *(value.(*models.StudentIdentity))
	return nil
}

func (c *identityCacheStub) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

func strPtr(v string) *string { return &v }

func studentAccount() *models.User {
	return &models.User{
		ID:           "stu-1",
		Email:        "Amira@Uni.test",
		FullName:     "Amira Khan",
		Role:         models.RoleStudent,
		Department:   strPtr("Computer  Science"),
		Semester:     strPtr("Fifth"),
		SupervisorID: strPtr("sup-1"),
	}
}

func TestIdentityResolverPrefersProfile(t *testing.T) {
	profiles := newProfileStoreStub(&models.StudentProfile{ID: "p-1", UserID: strPtr("stu-1"), Email: "amira@uni.test", FullName: "Amira Khan", RollNumber: "CS-21-014", Department: "CS", Semester: 6})
	resolver := NewIdentityResolver(profiles, newAccountStoreStub(studentAccount()), nil)

	identity, err := resolver.Resolve(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", identity.ID)
	assert.Equal(t, "stu-1", identity.AccountID)
	assert.Equal(t, 6, identity.Semester)
	assert.True(t, identity.Persisted())
}

func TestIdentityResolverFallsBackToAccount(t *testing.T) {
	profiles := newProfileStoreStub()
	resolver := NewIdentityResolver(profiles, newAccountStoreStub(studentAccount()), nil)

	identity, err := resolver.Resolve(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, models.IdentitySourceAccount, identity.Source)
	assert.Equal(t, "CS", identity.Department)
	assert.Equal(t, 5, identity.Semester)
	assert.Equal(t, 0, profiles.creates, "fallback must not persist")
}

func TestIdentityResolverMatchesProfileByAccountEmail(t *testing.T) {
	profiles := newProfileStoreStub(&models.StudentProfile{ID: "p-9", Email: "amira@uni.test", FullName: "Amira Khan", Department: "CS", Semester: 6})
	resolver := NewIdentityResolver(profiles, newAccountStoreStub(studentAccount()), nil)

	identity, err := resolver.Resolve(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "p-9", identity.ID)
	assert.Equal(t, "stu-1", identity.AccountID)
}

func TestIdentityResolverNotFound(t *testing.T) {
	company := &models.User{ID: "comp-1", Email: "hr@acme.test", Role: models.RoleCompany}
	resolver := NewIdentityResolver(newProfileStoreStub(), newAccountStoreStub(company), nil)

	_, err := resolver.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = resolver.Resolve(context.Background(), "comp-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = resolver.ResolveByEmail(context.Background(), "nobody@uni.test")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestIdentityResolverResolveByEmailIgnoresCase(t *testing.T) {
	resolver := NewIdentityResolver(newProfileStoreStub(), newAccountStoreStub(studentAccount()), nil)

	identity, err := resolver.ResolveByEmail(context.Background(), "AMIRA@uni.TEST")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", identity.ID)
}

func TestIdentityResolverMaterializeIdempotent(t *testing.T) {
	profiles := newProfileStoreStub()
	audit := &auditStub{}
	cache := &identityCacheStub{entries: make(map[string]models.StudentIdentity)}
	resolver := NewIdentityResolver(profiles, newAccountStoreStub(studentAccount()), nil,
		WithIdentityCache(cache, time.Minute), WithIdentityAudit(audit))

	before, err := resolver.Resolve(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, before.Persisted())

	first, err := resolver.Materialize(context.Background(), studentAccount())
	require.NoError(t, err)
	assert.True(t, first.Persisted())
	assert.Equal(t, "amira@uni.test", first.Email)
	assert.Equal(t, 5, first.Semester)
	assert.Contains(t, cache.deleted, "identity:id:stu-1")

	second, err := resolver.Materialize(context.Background(), studentAccount())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, profiles.creates)
	assert.Len(t, audit.logs, 1)

	after, err := resolver.Resolve(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, after.Persisted())
}

func TestIdentityResolverMaterializeRejectsNonStudent(t *testing.T) {
	resolver := NewIdentityResolver(newProfileStoreStub(), newAccountStoreStub(), nil)
	_, err := resolver.Materialize(context.Background(), &models.User{ID: "sup-1", Role: models.RoleSupervisor})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDepartmentAndSemesterMapping(t *testing.T) {
	assert.Equal(t, "CS", DepartmentCode("computer science"))
	assert.Equal(t, "SE", DepartmentCode(" Software   Engineering "))
	assert.Equal(t, "MATH", DepartmentCode("math"))
	assert.Equal(t, "", DepartmentCode("  "))

	assert.Equal(t, 5, SemesterNumber("5"))
	assert.Equal(t, 3, SemesterNumber("3rd"))
	assert.Equal(t, 7, SemesterNumber("Semester 7"))
	assert.Equal(t, 2, SemesterNumber("second"))
	assert.Equal(t, 0, SemesterNumber("graduated"))
}
