// Package store reads donor and recipient profiles from Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/TFMV/OrganMatchPro/internal/records"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

// ErrNotFound is returned when a donor or recipient id has no profile.
var ErrNotFound = errors.New("not found")

// Querier is the subset of pgxpool.Pool the store uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const donorColumns = `
	select u.id, u.city, u.state, u.blood_type, u.date_of_birth,
	       d.organs_donating, d.health_status, d.smoking_status,
	       d.alcohol_use, d.drug_use, d.is_available
	from profiles_donorprofile d
	join accounts_customuser u on (u.id = d.user_id)`

const recipientColumns = `
	select u.id, u.city, u.state, u.blood_type, u.date_of_birth,
	       r.organs_needed, r.urgency_level
	from profiles_recipientprofile r
	join accounts_customuser u on (u.id = r.user_id)`

// Store loads normalized records.
type Store struct {
	db     Querier
	logger utils.Logger
	now    func() time.Time
}

// New creates a store over db.
func New(db Querier, logger utils.Logger) *Store {
	if logger == nil {
		logger = utils.NewNoOpLogger()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// AvailableDonors returns every donor flagged as available.
func (s *Store) AvailableDonors(ctx context.Context) ([]records.DonorRecord, error) {
	return s.queryDonors(ctx, donorColumns+` where d.is_available order by u.id`)
}

// Donors returns the donors with the given ids. Unknown ids are skipped.
func (s *Store) Donors(ctx context.Context, ids []int64) ([]records.DonorRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryDonors(ctx, donorColumns+` where u.id = any($1) order by u.id`, ids)
}

// Donor returns one donor or ErrNotFound.
func (s *Store) Donor(ctx context.Context, id int64) (records.DonorRecord, error) {
	d, err := s.scanDonor(s.db.QueryRow(ctx, donorColumns+` where u.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return records.DonorRecord{}, fmt.Errorf("donor %d: %w", id, ErrNotFound)
	}
	return d, err
}

// Recipient returns one recipient or ErrNotFound.
func (s *Store) Recipient(ctx context.Context, id int64) (records.RecipientRecord, error) {
	row := s.db.QueryRow(ctx, recipientColumns+` where u.id = $1`, id)

	var (
		rid                int64
		city, state, blood pgtype.Text
		dob                pgtype.Date
		organs             []byte
		urgency            pgtype.Text
	)
	err := row.Scan(&rid, &city, &state, &blood, &dob, &organs, &urgency)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.RecipientRecord{}, fmt.Errorf("recipient %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return records.RecipientRecord{}, fmt.Errorf("recipient %d: %w", id, err)
	}

	return records.NewRecipient(records.RecipientRecord{
		Person:  s.person(rid, city, state, blood, dob),
		Organs:  records.ParseOrgans(organs),
		Urgency: records.UrgencyLevel(urgency.String),
	}), nil
}

func (s *Store) queryDonors(ctx context.Context, query string, args ...any) ([]records.DonorRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donors []records.DonorRecord
	for rows.Next() {
		d, err := s.scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("Donors loaded", map[string]interface{}{"count": len(donors)})
	return donors, nil
}

func (s *Store) scanDonor(row scanner) (records.DonorRecord, error) {
	var (
		id                       int64
		city, state, blood       pgtype.Text
		dob                      pgtype.Date
		organs                   []byte
		health, smoking, alcohol pgtype.Text
		drugUse, available       pgtype.Bool
	)
	if err := row.Scan(&id, &city, &state, &blood, &dob, &organs, &health, &smoking, &alcohol, &drugUse, &available); err != nil {
		return records.DonorRecord{}, err
	}

	return records.NewDonor(records.DonorRecord{
		Person:        s.person(id, city, state, blood, dob),
		Organs:        records.ParseOrgans(organs),
		Health:        records.HealthStatus(health.String),
		Smokes:        strings.EqualFold(strings.TrimSpace(smoking.String), "current"),
		DrinksAlcohol: drinks(alcohol.String),
		UsesDrugs:     drugUse.Bool,
		Available:     available.Bool,
	}), nil
}

func (s *Store) person(id int64, city, state, blood pgtype.Text, dob pgtype.Date) records.Person {
	p := records.Person{
		ID:        id,
		City:      city.String,
		State:     state.String,
		BloodType: records.BloodType(blood.String),
	}
	if dob.Valid {
		p.Age = ageAt(dob.Time, s.now())
	}
	return p
}

func drinks(use string) bool {
	switch strings.ToLower(strings.TrimSpace(use)) {
	case "occasional", "regular":
		return true
	}
	return false
}

// ageAt returns whole years between birth and now.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
