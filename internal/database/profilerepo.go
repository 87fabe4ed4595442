package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"healthdaily/internal/profile"
)

// ProfileRepository is the Postgres implementation of profile.Repository.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository builds the repository on top of the service pool.
func NewProfileRepository(svc *Service) *ProfileRepository {
	return &ProfileRepository{pool: svc.Pool()}
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO profiles (id, username, password_hash, created_at, nickname, height_cm, weight_kg, age, gender, goal, preferences, allergens, hydration_target)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.Username, p.PasswordHash, p.CreatedAt, p.Nickname,
		p.HeightCm, p.WeightKg, p.Age, p.Gender, p.Goal,
		textArray(p.Preferences), textArray(p.Allergens), p.HydrationTarget)
	if err != nil {
		return fmt.Errorf("creating profile %s: %w", p.Username, err)
	}
	return nil
}

func (r *ProfileRepository) scanOne(row pgx.Row) (*profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.CreatedAt, &p.Nickname,
		&p.HeightCm, &p.WeightKg, &p.Age, &p.Gender, &p.Goal,
		&p.Preferences, &p.Allergens, &p.HydrationTarget)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return &p, nil
}

const profileColumns = `id, username, password_hash, created_at, nickname, height_cm, weight_kg, age, gender, goal, preferences, allergens, hydration_target`

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *ProfileRepository) GetByUsername(ctx context.Context, username string) (*profile.Profile, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username))
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET username = $2, password_hash = $3, nickname = $4, height_cm = $5, weight_kg = $6, age = $7, gender = $8, goal = $9, preferences = $10, allergens = $11, hydration_target = $12
WHERE id = $1`,
		p.ID, p.Username, p.PasswordHash, p.Nickname, p.HeightCm, p.WeightKg,
		p.Age, p.Gender, p.Goal, textArray(p.Preferences), textArray(p.Allergens), p.HydrationTarget)
	if err != nil {
		return fmt.Errorf("updating profile %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// textArray keeps NOT NULL array columns happy when the slice is nil.
func textArray(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}
