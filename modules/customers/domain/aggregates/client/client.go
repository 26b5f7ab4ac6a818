package client

import (
	"strings"
	"time"
)

// Client is a tenant. Each client owns a database schema and one or more
// domains that route requests to it.
type Client struct {
	id         int64
	schemaName string
	name       string
	paidUntil  *time.Time
	onTrial    bool
	createdOn  time.Time
	domains    []Domain
}

type Domain struct {
	Domain    string
	IsPrimary bool
}

func New(schemaName, name string, domains ...Domain) Client {
	return Client{
		schemaName: strings.TrimSpace(schemaName),
		name:       strings.TrimSpace(name),
		onTrial:    true,
		domains:    normalizeDomains(domains),
	}
}

func Hydrate(
	id int64,
	schemaName string,
	name string,
	paidUntil *time.Time,
	onTrial bool,
	createdOn time.Time,
	domains []Domain,
) Client {
	return Client{
		id:         id,
		schemaName: schemaName,
		name:       name,
		paidUntil:  paidUntil,
		onTrial:    onTrial,
		createdOn:  createdOn,
		domains:    domains,
	}
}

func (c Client) ID() int64             { return c.id }
func (c Client) SchemaName() string    { return c.schemaName }
func (c Client) Name() string          { return c.name }
func (c Client) PaidUntil() *time.Time { return c.paidUntil }
func (c Client) OnTrial() bool         { return c.onTrial }
func (c Client) CreatedOn() time.Time  { return c.createdOn }
func (c Client) Domains() []Domain     { return c.domains }

func normalizeDomains(in []Domain) []Domain {
	out := make([]Domain, 0, len(in))
	for _, d := range in {
		host := strings.ToLower(strings.TrimSpace(d.Domain))
		if host == "" {
			continue
		}
		out = append(out, Domain{Domain: host, IsPrimary: d.IsPrimary})
	}
	return out
}
