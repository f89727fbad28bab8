// Package clients manages the customers work is billed to.
package clients

import (
	"context"
	"time"

	"encore.dev/rlog"
	"encore.dev/storage/sqldb"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var db = sqldb.NewDatabase("clients", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})

var (
	store Store = NewPgStore(sqldb.Driver[*pgxpool.Pool](db))
	now         = func() time.Time { return time.Now().UTC() }
)

// CreateClient registers a new client.
//
//encore:api public method=POST path=/clients
func CreateClient(ctx context.Context, params *ClientParams) (*model.Client, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	client := &model.Client{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      params.Name,
		Email:     params.Email,
		CreatedAt: now(),
	}

	if err := store.Create(ctx, client); err != nil {
		return nil, errors.SafeInternalError(err, "failed to create client")
	}

	rlog.Info("created client", "client_id", client.ID)
	return client, nil
}

// GetClient retrieves a client by ID.
//
//encore:api public method=GET path=/clients/:id
func GetClient(ctx context.Context, id string) (*model.Client, error) {
	client, err := store.Get(ctx, id)
	if err != nil {
		return nil, errors.FromStore(err, "client", "failed to get client")
	}

	return client, nil
}

// UpdateClient replaces the name and email of a client.
//
//encore:api public method=PUT path=/clients/:id
func UpdateClient(ctx context.Context, id string, params *ClientParams) (*model.Client, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	client := &model.Client{ID: id, Name: params.Name, Email: params.Email}
	if err := store.Update(ctx, client); err != nil {
		return nil, errors.FromStore(err, "client", "failed to update client")
	}

	return client, nil
}

// DeleteClient removes a client. Its projects and invoices are left untouched.
//
//encore:api public method=DELETE path=/clients/:id
func DeleteClient(ctx context.Context, id string) error {
	if err := store.Delete(ctx, id); err != nil {
		return errors.FromStore(err, "client", "failed to delete client")
	}

	rlog.Info("deleted client", "client_id", id)
	return nil
}

// ListClients lists every client, oldest first.
//
//encore:api public method=GET path=/clients
func ListClients(ctx context.Context) (*ListClientsResponse, error) {
	clients, err := store.List(ctx)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list clients")
	}

	return &ListClientsResponse{Clients: clients}, nil
}
