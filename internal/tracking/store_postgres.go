package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"identia/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists trámites in PostgreSQL. History and appointment
// payloads are stored as JSONB; the PIN is the primary key.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed trámite store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, tramite Tramite) error {
	history, cita, err := marshalPayloads(tramite)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tramites (
			pin, radicado, tipo, tipo_legible, ciudadano_nombre,
			ciudadano_cedula, estado, historial, cita, session_id,
			creado_en, actualizado_en
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		tramite.PIN,
		tramite.Radicado,
		tramite.Tipo,
		tramite.TipoLegible,
		tramite.Citizen.Nombre,
		tramite.Citizen.CedulaMasked,
		string(tramite.Estado),
		history,
		cita,
		nullString(tramite.SessionID),
		tramite.CreatedAt,
		tramite.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert tramite: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPIN(ctx context.Context, pin string) (Tramite, error) {
	query := `
		SELECT pin, radicado, tipo, tipo_legible, ciudadano_nombre,
		       ciudadano_cedula, estado, historial, cita, session_id,
		       creado_en, actualizado_en
		FROM tramites
		WHERE pin = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, pin))
}

func (s *PostgresStore) Update(ctx context.Context, tramite Tramite) error {
	history, cita, err := marshalPayloads(tramite)
	if err != nil {
		return err
	}
	query := `
		UPDATE tramites
		SET estado = $2, historial = $3, cita = $4, actualizado_en = $5
		WHERE pin = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		tramite.PIN,
		string(tramite.Estado),
		history,
		cita,
		tramite.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tramite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tramite rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Tramite, error) {
	query := `
		SELECT pin, radicado, tipo, tipo_legible, ciudadano_nombre,
		       ciudadano_cedula, estado, historial, cita, session_id,
		       creado_en, actualizado_en
		FROM tramites
		WHERE estado NOT IN ($1, $2)
		ORDER BY creado_en
	`
	rows, err := s.db.QueryContext(ctx, query,
		string(EstadoEntregado), string(EstadoRechazado))
	if err != nil {
		return nil, fmt.Errorf("list active tramites: %w", err)
	}
	defer rows.Close()

	var tramites []Tramite
	for rows.Next() {
		tramite, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		tramites = append(tramites, tramite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tramites: %w", err)
	}
	return tramites, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (Tramite, error) {
	var (
		tramite   Tramite
		estado    string
		history   []byte
		cita      []byte
		sessionID sql.NullString
	)
	err := row.Scan(
		&tramite.PIN,
		&tramite.Radicado,
		&tramite.Tipo,
		&tramite.TipoLegible,
		&tramite.Citizen.Nombre,
		&tramite.Citizen.CedulaMasked,
		&estado,
		&history,
		&cita,
		&sessionID,
		&tramite.CreatedAt,
		&tramite.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tramite{}, sentinel.ErrNotFound
		}
		return Tramite{}, fmt.Errorf("scan tramite: %w", err)
	}
	tramite.Estado = Estado(estado)
	tramite.SessionID = sessionID.String
	if len(history) > 0 {
		if err := json.Unmarshal(history, &tramite.History); err != nil {
			return Tramite{}, fmt.Errorf("decode historial: %w", err)
		}
	}
	if len(cita) > 0 {
		if err := json.Unmarshal(cita, &tramite.Cita); err != nil {
			return Tramite{}, fmt.Errorf("decode cita: %w", err)
		}
	}
	return tramite, nil
}

func marshalPayloads(tramite Tramite) (history, cita []byte, err error) {
	history, err = json.Marshal(tramite.History)
	if err != nil {
		return nil, nil, fmt.Errorf("encode historial: %w", err)
	}
	if tramite.Cita != nil {
		cita, err = json.Marshal(tramite.Cita)
		if err != nil {
			return nil, nil, fmt.Errorf("encode cita: %w", err)
		}
	}
	return history, cita, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
