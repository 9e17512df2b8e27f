package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stitchery/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and their empty profile in one transaction;
// a user row never exists without its profile row.
func (r *UserRepository) Create(ctx context.Context, email, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u := &models.User{Email: email, Username: username, PasswordHash: string(hash)}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, date_joined`,
		email, username, u.PasswordHash,
	).Scan(&u.ID, &u.DateJoined)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id) VALUES ($1)`, u.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	u.Profile = &models.Profile{UserID: u.ID}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, `WHERE u.email = $1`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, `WHERE u.username = $1`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, `WHERE u.id = $1`, id)
}

func (r *UserRepository) get(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	u := &models.User{}
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.username, u.password_hash, u.date_joined,
		       p.avatar, p.bio, p.location, p.social_telegram, p.social_vk
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		`+where, arg,
	).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.DateJoined,
		&p.Avatar, &p.Bio, &p.Location, &p.SocialTelegram, &p.SocialVK,
	)
	if err != nil {
		return nil, err
	}
	p.UserID = u.ID
	u.Profile = p
	return u, nil
}

// UpdateProfileParams carries a partial self-update: nil means leave
// the field unchanged.
type UpdateProfileParams struct {
	Username       *string
	Email          *string
	Avatar         *string
	Bio            *string
	Location       *string
	SocialTelegram *string
	SocialVK       *string
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, params UpdateProfileParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET
			username = COALESCE($1, username),
			email = COALESCE($2, email)
		WHERE id = $3`,
		params.Username, params.Email, userID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE profiles SET
			avatar = COALESCE($1, avatar),
			bio = COALESCE($2, bio),
			location = COALESCE($3, location),
			social_telegram = COALESCE($4, social_telegram),
			social_vk = COALESCE($5, social_vk)
		WHERE user_id = $6`,
		params.Avatar, params.Bio, params.Location,
		params.SocialTelegram, params.SocialVK, userID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
