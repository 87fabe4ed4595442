/*
Package profile owns user accounts: registration, login and the static
attributes that feed hydration targets and plan prompts. Password hashes use
bcrypt; sessions are HMAC-signed JWTs.
*/
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when no profile matches the lookup.
var ErrNotFound = errors.New("profile not found")

// ErrUsernameTaken is returned when a signup collides with an existing name.
var ErrUsernameTaken = errors.New("username already taken")

// Profile is one user account.
type Profile struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Nickname        string   `json:"nickname,omitempty"`
	HeightCm        float64  `json:"height_cm,omitempty"`
	WeightKg        float64  `json:"weight_kg,omitempty"`
	Age             int      `json:"age,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Goal            string   `json:"goal,omitempty"`
	Preferences     []string `json:"preferences,omitempty"`
	Allergens       []string `json:"allergens,omitempty"`
	HydrationTarget int      `json:"hydration_target,omitempty"`
}

// BMI derives body mass index from height and weight; zero when either is
// unset.
func (p *Profile) BMI() float64 {
	if p.HeightCm <= 0 || p.WeightKg <= 0 {
		return 0
	}
	m := p.HeightCm / 100
	return math.Round(p.WeightKg/(m*m)*10) / 10
}

// Repository is the persistence contract for profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id string) error
}

// Register creates an account with a bcrypt-hashed password.
func Register(ctx context.Context, repo Repository, username, password string) (*Profile, error) {
	if username == "" || len(password) < 6 {
		return nil, fmt.Errorf("username required and password must be at least 6 characters")
	}
	if existing, err := repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	p := &Profile{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return p, nil
}

// Authenticate verifies credentials and returns the profile.
func Authenticate(ctx context.Context, repo Repository, username, password string) (*Profile, error) {
	p, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return p, nil
}

// MemoryRepository is the in-process store used for file-backed deployments
// and tests. It is injected like any other repository, never held in a
// package-level variable.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*Profile
	byName map[string]string
}

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*Profile),
		byName: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[p.Username]; ok {
		return ErrUsernameTaken
	}
	clone := *p
	r.byID[p.ID] = &clone
	r.byName[p.Username] = p.ID
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	if old.Username != p.Username {
		if _, taken := r.byName[p.Username]; taken {
			return ErrUsernameTaken
		}
		delete(r.byName, old.Username)
		r.byName[p.Username] = p.ID
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byName, p.Username)
	delete(r.byID, id)
	return nil
}

// Usernames lists registered usernames, sorted. Test helper.
func (r *MemoryRepository) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
