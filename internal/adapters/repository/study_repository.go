package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

const studyColumns = `s.id, s.user_id, s.biochemist_id, s.study_name, s.study_date,
	s.social_insurance, s.doctor, st.name, s.pdf_url, s.created_at`

const studyFrom = ` FROM studies s JOIN statuses st ON st.id = s.status_id `

func (r *SQLRepository) Create(ctx context.Context, study domain.Study, outboxPayload []byte) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO studies (user_id, biochemist_id, study_name, study_date, social_insurance, doctor, status_id, pdf_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, (SELECT id FROM statuses WHERE name = $7), $8, $9)
		 RETURNING id`,
		study.UserID,
		study.BiochemistID,
		study.Name,
		study.Date,
		nullable(study.SocialInsurance),
		nullable(study.Doctor),
		string(study.Status),
		nullable(study.PDFURL),
		study.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	if outboxPayload != nil {
		if err := enqueueTx(ctx, tx, ports.EventStudyCreated, outboxPayload); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// SQLStudyRepository adapts SQLRepository to ports.StudyRepository:
// its FindByID signature collides with ports.UserRepository's, so the
// study variant lives on this wrapper.
type SQLStudyRepository struct {
	*SQLRepository
}

func (r SQLStudyRepository) FindByID(ctx context.Context, id int64) (*domain.Study, error) {
	return r.findStudyByID(ctx, id)
}

func (r *SQLRepository) findStudyByID(ctx context.Context, id int64) (*domain.Study, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studyColumns+studyFrom+`WHERE s.id = $1`, id)
	return scanStudy(row)
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]domain.Study, error) {
	return r.listStudies(ctx, `SELECT `+studyColumns+studyFrom+`ORDER BY s.created_at DESC`)
}

func (r *SQLRepository) ListByBiochemist(ctx context.Context, biochemistID int64) ([]domain.Study, error) {
	return r.listStudies(ctx,
		`SELECT `+studyColumns+studyFrom+`WHERE s.biochemist_id = $1 ORDER BY s.created_at DESC`,
		biochemistID,
	)
}

func (r *SQLRepository) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]domain.Study, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM studies WHERE user_id = $1",
		patientID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	studies, err := r.listStudies(ctx,
		`SELECT `+studyColumns+studyFrom+`WHERE s.user_id = $1 ORDER BY s.study_date DESC NULLS LAST LIMIT $2 OFFSET $3`,
		patientID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return studies, total, nil
}

func (r *SQLRepository) UpdateStatus(ctx context.Context, id int64, status domain.StudyStatus) (*domain.Study, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE studies SET status_id = (SELECT id FROM statuses WHERE name = $1) WHERE id = $2`,
		string(status),
		id,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.findStudyByID(ctx, id)
}

func (r *SQLRepository) Update(ctx context.Context, id int64, fields domain.StudyUpdate) (*domain.Study, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE studies SET
			social_insurance = COALESCE($1, social_insurance),
			study_date       = COALESCE($2, study_date),
			doctor           = COALESCE($3, doctor)
		 WHERE id = $4`,
		fields.SocialInsurance,
		fields.Date,
		fields.Doctor,
		id,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.findStudyByID(ctx, id)
}

func (r *SQLRepository) listStudies(ctx context.Context, query string, args ...any) ([]domain.Study, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studies []domain.Study
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		studies = append(studies, *study)
	}
	return studies, rows.Err()
}

func scanStudy(row rowScanner) (*domain.Study, error) {
	var (
		study           domain.Study
		biochemistID    sql.NullInt64
		studyDate       sql.NullTime
		socialInsurance sql.NullString
		doctor          sql.NullString
		statusName      string
		pdfURL          sql.NullString
	)
	err := row.Scan(
		&study.ID,
		&study.UserID,
		&biochemistID,
		&study.Name,
		&studyDate,
		&socialInsurance,
		&doctor,
		&statusName,
		&pdfURL,
		&study.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	status, err := domain.ParseStudyStatus(statusName)
	if err != nil {
		return nil, err
	}
	study.Status = status
	if biochemistID.Valid {
		study.BiochemistID = &biochemistID.Int64
	}
	if studyDate.Valid {
		study.Date = &studyDate.Time
	}
	study.SocialInsurance = socialInsurance.String
	study.Doctor = doctor.String
	study.PDFURL = pdfURL.String
	return &study, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
