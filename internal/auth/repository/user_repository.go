package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"

	"shoppos/internal/auth/domain"
	"shoppos/internal/platform/logger"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserConflict = errors.New("user with this username already exists")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (username, password_hash, created_at)
              VALUES ($1, $2, $3) RETURNING id, created_at`
	user.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash, user.CreatedAt).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrUserConflict
		}
		logger.Error("CreateUser: insert failed", err, nil)
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logger.Error("GetUserByUsername: query failed", err, nil)
		return nil, err
	}
	return &u, nil
}

// memoryUserRepository backs the login gate when the service runs against
// the spreadsheet catalog and has no relational store. Seeded with the
// operator account from config.
type memoryUserRepository struct {
	mu     sync.Mutex
	users  map[string]domain.User
	nextID int64
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: map[string]domain.User{}, nextID: 1}
}

func (r *memoryUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return ErrUserConflict
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	r.users[user.Username] = *user
	return nil
}

func (r *memoryUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
