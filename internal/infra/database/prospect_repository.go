package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/optira-energie/comparateur-api/internal/entity"
)

// ProspectRepository stores each prospect as a document: the merged form
// sections live in the `data` jsonb column, the file-descriptor lists in a
// separate `documents` column. Step saves never write `documents` and
// uploads never write `data`, so neither flow can clobber the other.
type ProspectRepository struct {
	DB *sql.DB
}

func NewProspectRepository(db *sql.DB) *ProspectRepository {
	return &ProspectRepository{DB: db}
}

// prospectData is the shape of the `data` column.
type prospectData struct {
	Contact           entity.Contact            `json:"contact"`
	Company           entity.Company            `json:"company"`
	Energy            entity.Energy             `json:"energy"`
	ElectricityMeters []entity.ElectricityMeter `json:"electricityMeters"`
	GasMeters         []entity.GasMeter         `json:"gasMeters"`
	Consents          entity.Consents           `json:"consents"`
	Analytics         entity.Analytics          `json:"analytics"`
}

func dataOf(p *entity.Prospect) prospectData {
	return prospectData{
		Contact:           p.Contact,
		Company:           p.Company,
		Energy:            p.Energy,
		ElectricityMeters: p.ElectricityMeters,
		GasMeters:         p.GasMeters,
		Consents:          p.Consents,
		Analytics:         p.Analytics,
	}
}

func (r *ProspectRepository) Create(ctx context.Context, p *entity.Prospect) error {
	data, err := json.Marshal(dataOf(p))
	if err != nil {
		return fmt.Errorf("failed to marshal prospect data: %w", err)
	}
	docs, err := json.Marshal(p.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	query := `
		INSERT INTO prospects (id, status, source, current_step, completion_rate, data, documents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.DB.ExecContext(ctx, query,
		p.ID,
		string(p.Status),
		p.Source,
		p.CurrentStep,
		p.CompletionRate,
		data,
		docs,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		log.Printf("database error on prospect insert: %v", err)
		return err
	}

	return nil
}

func (r *ProspectRepository) FindByID(ctx context.Context, id string) (*entity.Prospect, error) {
	query := `
		SELECT id, status, source, current_step, completion_rate, data, documents, created_at, updated_at
		FROM prospects
		WHERE id = $1
	`

	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *ProspectRepository) scanOne(row *sql.Row) (*entity.Prospect, error) {
	var p entity.Prospect
	var status string
	var data, docs []byte

	err := row.Scan(
		&p.ID,
		&status,
		&p.Source,
		&p.CurrentStep,
		&p.CompletionRate,
		&data,
		&docs,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProspectNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Status = entity.ProspectStatus(status)

	var d prospectData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("corrupt prospect data for %s: %w", p.ID, err)
	}
	p.Contact = d.Contact
	p.Company = d.Company
	p.Energy = d.Energy
	p.ElectricityMeters = d.ElectricityMeters
	p.GasMeters = d.GasMeters
	p.Consents = d.Consents
	p.Analytics = d.Analytics

	if err := json.Unmarshal(docs, &p.Documents); err != nil {
		return nil, fmt.Errorf("corrupt documents for %s: %w", p.ID, err)
	}

	return &p, nil
}

// Save persists the merged sections and the step columns. completion_rate
// uses GREATEST so an out-of-order retry with a lower step cannot regress
// the rate; documents are deliberately not written here.
func (r *ProspectRepository) Save(ctx context.Context, p *entity.Prospect) error {
	data, err := json.Marshal(dataOf(p))
	if err != nil {
		return fmt.Errorf("failed to marshal prospect data: %w", err)
	}

	query := `
		UPDATE prospects
		SET status = $2,
		    current_step = $3,
		    completion_rate = GREATEST(completion_rate, $4),
		    data = $5,
		    updated_at = $6
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query,
		p.ID,
		string(p.Status),
		p.CurrentStep,
		p.CompletionRate,
		data,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrProspectNotFound
	}
	return nil
}

func (r *ProspectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM prospects WHERE id = $1`, id)
	return err
}

// AppendDocument is a single-statement list-append, never a full-document
// overwrite, so a step update landing in between cannot lose the file.
func (r *ProspectRepository) AppendDocument(ctx context.Context, id string, category entity.DocumentCategory, fd entity.FileDescriptor) error {
	elem, err := json.Marshal([]entity.FileDescriptor{fd})
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	query := `
		UPDATE prospects
		SET documents = jsonb_set(
		        documents,
		        $2::text[],
		        COALESCE(documents #> $2::text[], '[]'::jsonb) || $3::jsonb
		    ),
		    updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, id, pq.Array([]string{category.ListKey()}), elem)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrProspectNotFound
	}
	return nil
}

// RemoveDocument filters exactly one descriptor out of exactly one list.
func (r *ProspectRepository) RemoveDocument(ctx context.Context, id string, category entity.DocumentCategory, fileID string) error {
	query := `
		UPDATE prospects
		SET documents = jsonb_set(
		        documents,
		        $2::text[],
		        COALESCE(
		            (SELECT jsonb_agg(elem)
		             FROM jsonb_array_elements(documents #> $2::text[]) AS elem
		             WHERE elem->>'id' <> $3),
		            '[]'::jsonb
		        )
		    ),
		    updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, id, pq.Array([]string{category.ListKey()}), fileID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrProspectNotFound
	}
	return nil
}

// List is the back-office table view, newest first.
func (r *ProspectRepository) List(ctx context.Context, limit int) ([]*entity.Prospect, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, status, source, current_step, completion_rate, data, documents, created_at, updated_at
		FROM prospects
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Prospect
	for rows.Next() {
		var p entity.Prospect
		var status string
		var data, docs []byte
		if err := rows.Scan(&p.ID, &status, &p.Source, &p.CurrentStep, &p.CompletionRate, &data, &docs, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Status = entity.ProspectStatus(status)
		var d prospectData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("corrupt prospect data for %s: %w", p.ID, err)
		}
		p.Contact = d.Contact
		p.Company = d.Company
		p.Energy = d.Energy
		p.ElectricityMeters = d.ElectricityMeters
		p.GasMeters = d.GasMeters
		p.Consents = d.Consents
		p.Analytics = d.Analytics
		if err := json.Unmarshal(docs, &p.Documents); err != nil {
			return nil, fmt.Errorf("corrupt documents for %s: %w", p.ID, err)
		}
		out = append(out, &p)
	}

	return out, rows.Err()
}

func (r *ProspectRepository) UpdateStatus(ctx context.Context, id string, status entity.ProspectStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE prospects SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrProspectNotFound
	}
	return nil
}
