package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipstream/internal/models"
)

// ErrPostgresUnavailable is returned for domain entities whose Postgres
// migrations have not yet been applied. Account and credential operations are
// fully implemented; the content tables follow as migrations land.
var ErrPostgresUnavailable = fmt.Errorf("postgres repository unavailable")

type postgresRepository struct {
	pool *pgxpool.Pool
	cfg  PostgresConfig
}

// NewPostgresRepository opens a Postgres-backed repository and bootstraps the
// users table.
func NewPostgresRepository(dsn string, opts ...Option) (Repository, error) {
	cfg := newPostgresConfig(dsn, opts...)
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections >= 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckInterval > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckInterval
	}
	if cfg.AcquireTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout
	}
	if cfg.ApplicationName != "" {
		if poolCfg.ConnConfig.RuntimeParams == nil {
			poolCfg.ConnConfig.RuntimeParams = make(map[string]string)
		}
		poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	repo := &postgresRepository{pool: pool, cfg: cfg}
	if err := repo.ensureUserSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the Postgres connection pool resources.
func (r *postgresRepository) Close(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}

const userColumns = `id, username, email, full_name, bio, avatar_url, cover_url, password_hash, refresh_token, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Bio,
		&user.AvatarURL,
		&user.CoverURL,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (r *postgresRepository) CreateUser(params CreateUserParams) (models.User, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	if username == "" {
		return models.User{}, errors.New("username is required")
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	fullName := strings.TrimSpace(params.FullName)
	if fullName == "" {
		return models.User{}, errors.New("fullName is required")
	}
	if len(params.Password) < 8 {
		return models.User{}, errors.New("password must be at least 8 characters")
	}

	hashed, err := hashPassword(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := generateID()
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		FullName:     fullName,
		AvatarURL:    strings.TrimSpace(params.AvatarURL),
		CoverURL:     strings.TrimSpace(params.CoverURL),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.pool.Exec(context.Background(), `
INSERT INTO users (`+userColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, user.ID, user.Username, user.Email, user.FullName, user.Bio, user.AvatarURL, user.CoverURL, user.PasswordHash, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) GetUser(id string) (models.User, bool) {
	row := r.pool.QueryRow(context.Background(), `
SELECT `+userColumns+` FROM users WHERE id = $1
`, id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (r *postgresRepository) FindUserByLogin(loginKey string) (models.User, bool) {
	normalized := strings.ToLower(strings.TrimSpace(loginKey))
	row := r.pool.QueryRow(context.Background(), `
SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1
`, normalized)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (r *postgresRepository) ListUsers() []models.User {
	rows, err := r.pool.Query(context.Background(), `
SELECT `+userColumns+` FROM users ORDER BY created_at
`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil
		}
		users = append(users, user)
	}
	return users
}

func (r *postgresRepository) UpdateUser(id string, update UserUpdate) (models.User, error) {
	user, ok := r.GetUser(id)
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return models.User{}, errors.New("fullName cannot be empty")
		}
		user.FullName = name
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email == "" {
			return models.User{}, errors.New("email cannot be empty")
		}
		user.Email = email
	}
	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.CoverURL != nil {
		user.CoverURL = strings.TrimSpace(*update.CoverURL)
	}
	user.UpdatedAt = time.Now().UTC()

	_, err := r.pool.Exec(context.Background(), `
UPDATE users
SET email = $2, full_name = $3, bio = $4, avatar_url = $5, cover_url = $6, updated_at = $7
WHERE id = $1
`, user.ID, user.Email, user.FullName, user.Bio, user.AvatarURL, user.CoverURL, user.UpdatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (r *postgresRepository) DeleteUser(id string) error {
	tag, err := r.pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *postgresRepository) AuthenticateUser(loginKey, password string) (models.User, error) {
	if password == "" {
		return models.User{}, ErrInvalidCredentials
	}
	user, ok := r.FindUserByLogin(loginKey)
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if err := verifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *postgresRepository) VerifyUserPassword(id, password string) error {
	user, ok := r.GetUser(id)
	if !ok {
		return ErrInvalidCredentials
	}
	if err := verifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

func (r *postgresRepository) SetUserPassword(id, password string) (models.User, error) {
	if len(password) < 8 {
		return models.User{}, errors.New("password must be at least 8 characters")
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	tag, err := r.pool.Exec(context.Background(), `
UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
`, id, hashed, now)
	if err != nil {
		return models.User{}, fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user, _ := r.GetUser(id)
	return user, nil
}

func (r *postgresRepository) SetRefreshToken(id, token string) error {
	tag, err := r.pool.Exec(context.Background(), `
UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1
`, id, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// RotateRefreshToken swaps the stored token in a single conditional UPDATE,
// so concurrent rotations of the same presented token succeed at most once.
func (r *postgresRepository) RotateRefreshToken(id, presented, next string) error {
	if presented == "" {
		return ErrRefreshMismatch
	}
	tag, err := r.pool.Exec(context.Background(), `
UPDATE users SET refresh_token = $3, updated_at = $4
WHERE id = $1 AND refresh_token = $2
`, id, presented, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRefreshMismatch
	}
	return nil
}

func (r *postgresRepository) CreateVideo(params CreateVideoParams) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetVideo(id string) (models.Video, bool) {
	return models.Video{}, false
}

func (r *postgresRepository) ListVideos(params ListVideosParams) ([]models.Video, int) {
	return nil, 0
}

func (r *postgresRepository) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteVideo(id string) (models.Video, error) {
	return models.Video{}, ErrPostgresUnavailable
}

func (r *postgresRepository) AddVideoViews(id string, delta int64) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) CreateComment(videoID, authorID, content string) (models.Comment, error) {
	return models.Comment{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetComment(id string) (models.Comment, bool) {
	return models.Comment{}, false
}

func (r *postgresRepository) ListComments(videoID string, page, pageSize int) ([]models.Comment, int) {
	return nil, 0
}

func (r *postgresRepository) UpdateComment(id, content string) (models.Comment, error) {
	return models.Comment{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeleteComment(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) ToggleLike(userID, kind, targetID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) CountLikes(kind, targetID string) int {
	return 0
}

func (r *postgresRepository) ListLikedVideos(userID string) []models.Video {
	return nil
}

func (r *postgresRepository) ToggleSubscription(subscriberID, channelID string) (bool, error) {
	return false, ErrPostgresUnavailable
}

func (r *postgresRepository) IsSubscribed(subscriberID, channelID string) bool {
	return false
}

func (r *postgresRepository) CountSubscribers(channelID string) int {
	return 0
}

func (r *postgresRepository) ListSubscribers(channelID string) []models.User {
	return nil
}

func (r *postgresRepository) ListSubscribedChannels(subscriberID string) []models.User {
	return nil
}

func (r *postgresRepository) CreatePlaylist(ownerID, name, description string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetPlaylist(id string) (models.Playlist, bool) {
	return models.Playlist{}, false
}

func (r *postgresRepository) ListPlaylists(ownerID string) []models.Playlist {
	return nil
}

func (r *postgresRepository) UpdatePlaylist(id string, update PlaylistUpdate) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeletePlaylist(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) AddPlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) RemovePlaylistVideo(playlistID, videoID string) (models.Playlist, error) {
	return models.Playlist{}, ErrPostgresUnavailable
}

func (r *postgresRepository) CreatePost(authorID, content string) (models.CommunityPost, error) {
	return models.CommunityPost{}, ErrPostgresUnavailable
}

func (r *postgresRepository) GetPost(id string) (models.CommunityPost, bool) {
	return models.CommunityPost{}, false
}

func (r *postgresRepository) ListPosts(authorID string) []models.CommunityPost {
	return nil
}

func (r *postgresRepository) UpdatePost(id, content string) (models.CommunityPost, error) {
	return models.CommunityPost{}, ErrPostgresUnavailable
}

func (r *postgresRepository) DeletePost(id string) error {
	return ErrPostgresUnavailable
}

func (r *postgresRepository) CountVideos(channelID string) int {
	return 0
}

func (r *postgresRepository) SumVideoViews(channelID string) int64 {
	return 0
}

func (r *postgresRepository) CountVideoLikes(channelID string) int {
	return 0
}

func (r *postgresRepository) ListChannelVideos(filter ChannelVideoFilter) []models.Video {
	return nil
}

var _ Repository = (*postgresRepository)(nil)
