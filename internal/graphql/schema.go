package graphql

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/service"
)

//go:embed schema.graphql
var schemaSDL string

const maxQueryDepth = 12

// Resolver is the root of the GraphQL schema.
type Resolver struct {
	users   service.UserService
	txs     service.TransactionService
	exports service.ExportService
	logger  logrus.FieldLogger
}

func NewResolver(users service.UserService, txs service.TransactionService, exports service.ExportService, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		users:   users,
		txs:     txs,
		exports: exports,
		logger:  logger,
	}
}

// NewSchema parses the embedded SDL against the resolver.
func NewSchema(r *Resolver) (*graphqlgo.Schema, error) {
	schema, err := graphqlgo.ParseSchema(schemaSDL, r,
		graphqlgo.MaxDepth(maxQueryDepth),
		graphqlgo.Logger(panicLogger{logger: r.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

type panicLogger struct {
	logger logrus.FieldLogger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.logger.WithField("panic", value).Error("graphql resolver panicked")
}

var errInternal = errors.New("Internal server error")

var publicErrors = []error{
	service.ErrMissingFields,
	service.ErrInvalidInput,
	service.ErrUserAlreadyExists,
	service.ErrInvalidCredentials,
	service.ErrUserNotFound,
	service.ErrTransactionNotFound,
	service.ErrUnauthorized,
	service.ErrExportUnavailable,
}

// expose passes service errors through and hides everything else.
func (r *Resolver) expose(op string, err error) error {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	r.logger.WithError(err).WithField("operation", op).Error("graphql operation failed")
	return errInternal
}

func (r *Resolver) viewer(ctx context.Context) (*domain.User, error) {
	s, ok := SessionFrom(ctx)
	if !ok || s.User() == nil {
		return nil, service.ErrUnauthorized
	}
	return s.User(), nil
}

func (r *Resolver) session(ctx context.Context) (Session, error) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return nil, errors.New("no session attached to request")
	}
	return s, nil
}
