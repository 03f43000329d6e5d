// Package repo provides postgres access for the model artifact registry
package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	perr "flatsense/internal/platform/errors"

	"flatsense/internal/modkit/repokit"
	"flatsense/internal/services/estimator/domain"
)

// Repo is the model registry persistence surface
type Repo interface {
	// Latest returns the newest trained model, nil when none exists
	Latest(ctx context.Context) (*domain.Model, error)
	// Save persists one trained model generation
	Save(ctx context.Context, m domain.Model) error
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the model registry
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Latest(ctx context.Context) (*domain.Model, error) {
	const sql = `
select version::text, trained_at, train_start, train_end, train_rows, payload, reference
from model_artifact
order by trained_at desc
limit 1
`
	var m domain.Model
	var payload, reference []byte
	err := r.q.QueryRow(ctx, sql).Scan(
		&m.Meta.Version, &m.Meta.TrainedAt,
		&m.Meta.TrainStart, &m.Meta.TrainEnd, &m.Meta.TrainRows,
		&payload, &reference,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &m.Artifact); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode model payload")
	}
	if len(reference) > 0 {
		if err := json.Unmarshal(reference, &m.Reference); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode model reference")
		}
	}
	return &m, nil
}

func (r *queries) Save(ctx context.Context, m domain.Model) error {
	payload, err := json.Marshal(m.Artifact)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode model payload")
	}
	reference, err := json.Marshal(m.Reference)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode model reference")
	}
	const sql = `
insert into model_artifact (version, trained_at, train_start, train_end, train_rows, payload, reference)
values ($1::uuid, $2, $3, $4, $5, $6, $7)
`
	_, err = r.q.Exec(ctx, sql,
		m.Meta.Version, m.Meta.TrainedAt,
		m.Meta.TrainStart, m.Meta.TrainEnd, m.Meta.TrainRows,
		payload, reference,
	)
	return err
}
