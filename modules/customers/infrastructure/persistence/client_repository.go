package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/iota-catalog/modules/customers/domain/aggregates/client"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

// The tenant registry lives in the public schema, so these queries run on
// the pool (or the caller's transaction) without a tenant search_path.
const (
	clientColumns = `c.id, c.schema_name, c.name, c.paid_until, c.on_trial, c.created_on`

	selectClientByDomainQuery = `
		SELECT ` + clientColumns + `
		FROM public.customers_domain d
		JOIN public.customers_client c ON c.id = d.tenant_id
		WHERE d.domain = $1`
	selectClientBySchemaQuery = `SELECT ` + clientColumns + ` FROM public.customers_client c WHERE c.schema_name = $1`
	selectClientsQuery        = `SELECT ` + clientColumns + ` FROM public.customers_client c ORDER BY c.id`
	selectDomainsQuery        = `SELECT domain, is_primary FROM public.customers_domain WHERE tenant_id = $1 ORDER BY id`
	insertClientQuery         = `
		INSERT INTO public.customers_client (schema_name, name, paid_until, on_trial, created_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	insertDomainQuery = `INSERT INTO public.customers_domain (domain, tenant_id, is_primary) VALUES ($1, $2, $3)`
)

type ClientRepository struct{}

func NewClientRepository() client.Repository {
	return &ClientRepository{}
}

func (r *ClientRepository) GetByDomain(ctx context.Context, domain string) (client.Client, error) {
	return r.queryOne(ctx, selectClientByDomainQuery, strings.ToLower(strings.TrimSpace(domain)))
}

func (r *ClientRepository) GetBySchemaName(ctx context.Context, schemaName string) (client.Client, error) {
	return r.queryOne(ctx, selectClientBySchemaQuery, schemaName)
}

func (r *ClientRepository) List(ctx context.Context) ([]client.Client, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectClientsQuery)
	if err != nil {
		return nil, gerrors.Wrap(err, "query clients")
	}
	clients, err := pgx.CollectRows(rows, scanClient)
	if err != nil {
		return nil, gerrors.Wrap(err, "collect clients")
	}
	for i, c := range clients {
		domains, err := r.domains(ctx, tx, c.ID())
		if err != nil {
			return nil, err
		}
		clients[i] = withDomains(c, domains)
	}
	return clients, nil
}

func (r *ClientRepository) Create(ctx context.Context, c client.Client) (client.Client, error) {
	var created client.Client
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		createdOn := c.CreatedOn()
		if createdOn.IsZero() {
			createdOn = time.Now()
		}
		var id int64
		if err := tx.QueryRow(txCtx, insertClientQuery,
			c.SchemaName(), c.Name(), c.PaidUntil(), c.OnTrial(), createdOn,
		).Scan(&id); err != nil {
			return gerrors.Wrap(err, "insert client")
		}
		for _, d := range c.Domains() {
			if _, err := tx.Exec(txCtx, insertDomainQuery, d.Domain, id, d.IsPrimary); err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return client.ErrDomainTaken
				}
				return gerrors.Wrap(err, "insert domain")
			}
		}
		created = client.Hydrate(id, c.SchemaName(), c.Name(), c.PaidUntil(), c.OnTrial(), createdOn, c.Domains())
		return nil
	})
	return created, err
}

func (r *ClientRepository) queryOne(ctx context.Context, query string, arg any) (client.Client, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return client.Client{}, err
	}
	rows, err := tx.Query(ctx, query, arg)
	if err != nil {
		return client.Client{}, gerrors.Wrap(err, "query client")
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanClient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrNotFound
		}
		return client.Client{}, gerrors.Wrap(err, "scan client")
	}
	domains, err := r.domains(ctx, tx, c.ID())
	if err != nil {
		return client.Client{}, err
	}
	return withDomains(c, domains), nil
}

func (r *ClientRepository) domains(ctx context.Context, tx composables.Tx, clientID int64) ([]client.Domain, error) {
	rows, err := tx.Query(ctx, selectDomainsQuery, clientID)
	if err != nil {
		return nil, gerrors.Wrap(err, "query domains")
	}
	domains, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (client.Domain, error) {
		var d client.Domain
		err := row.Scan(&d.Domain, &d.IsPrimary)
		return d, err
	})
	if err != nil {
		return nil, gerrors.Wrap(err, "collect domains")
	}
	return domains, nil
}

func scanClient(row pgx.CollectableRow) (client.Client, error) {
	var (
		id         int64
		schemaName string
		name       string
		paidUntil  *time.Time
		onTrial    bool
		createdOn  time.Time
	)
	if err := row.Scan(&id, &schemaName, &name, &paidUntil, &onTrial, &createdOn); err != nil {
		return client.Client{}, err
	}
	return client.Hydrate(id, schemaName, name, paidUntil, onTrial, createdOn, nil), nil
}

func withDomains(c client.Client, domains []client.Domain) client.Client {
	return client.Hydrate(c.ID(), c.SchemaName(), c.Name(), c.PaidUntil(), c.OnTrial(), c.CreatedOn(), domains)
}
