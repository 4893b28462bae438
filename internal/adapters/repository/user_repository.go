package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

type SQLRepository struct {
	db *sql.DB
}

var (
	_ ports.UserRepository   = (*SQLRepository)(nil)
	_ ports.StudyRepository  = SQLStudyRepository{}
	_ ports.OutboxRepository = (*SQLRepository)(nil)
)

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const userColumns = `u.id, u.dni, u.email, u.password, u.license, u.role_id, r.name, u.created_at`

func (r *SQLRepository) findUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id WHERE `+where,
		arg,
	)
	return scanUser(row)
}

func (r *SQLRepository) FindByDNI(ctx context.Context, dni string) (*domain.User, error) {
	return r.findUser(ctx, "u.dni = $1", dni)
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, "u.email = $1", email)
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findUser(ctx, "u.id = $1", id)
}

func (r *SQLRepository) CreateBiochemist(ctx context.Context, user domain.User, profile domain.Profile) (int64, error) {
	return r.createUser(ctx, user, profile, "", nil)
}

func (r *SQLRepository) CreatePatient(ctx context.Context, user domain.User, profile domain.Profile, outboxPayload []byte) (int64, error) {
	return r.createUser(ctx, user, profile, ports.EventPatientRegistered, outboxPayload)
}

func (r *SQLRepository) createUser(ctx context.Context, user domain.User, profile domain.Profile, eventType string, outboxPayload []byte) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var password sql.NullString
	if acct, ok := user.Account.(domain.RegisteredAccount); ok {
		password = sql.NullString{String: acct.PasswordHash, Valid: true}
	}
	var license sql.NullString
	if user.License != "" {
		license = sql.NullString{String: user.License, Valid: true}
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (dni, email, password, license, role_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		user.DNI,
		user.Email,
		password,
		license,
		user.RoleID,
		user.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, birth_date)
		 VALUES ($1, $2, $3, $4)`,
		id,
		profile.FirstName,
		profile.LastName,
		profile.BirthDate,
	)
	if err != nil {
		return 0, err
	}

	if outboxPayload != nil {
		if err := enqueueTx(ctx, tx, eventType, outboxPayload); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SQLRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password = $1 WHERE id = $2",
		passwordHash,
		userID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Enqueue inserts a standalone outbox event outside of an entity
// transaction.
func (r *SQLRepository) Enqueue(ctx context.Context, eventType string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		uuid.NewString(),
		eventType,
		payload,
	)
	return err
}

func enqueueTx(ctx context.Context, tx *sql.Tx, eventType string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		uuid.NewString(),
		eventType,
		payload,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user     domain.User
		roleName string
		password sql.NullString
		license  sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&user.DNI,
		&user.Email,
		&password,
		&license,
		&user.RoleID,
		&roleName,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.License = license.String
	if password.Valid {
		user.Account = domain.RegisteredAccount{PasswordHash: password.String}
	} else {
		user.Account = domain.PendingAccount{}
	}
	return &user, nil
}

// RoleIDs loads the fixed role rows. The role set is closed; an
// unknown name in the table is a deployment error.
func (r *SQLRepository) RoleIDs(ctx context.Context) (map[domain.Role]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM roles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[domain.Role]int64, 3)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		role, err := domain.ParseRole(name)
		if err != nil {
			return nil, err
		}
		ids[role] = id
	}
	return ids, rows.Err()
}
