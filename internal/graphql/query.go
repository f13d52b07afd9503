package graphql

import (
	"context"
	"errors"

	graphqlgo "github.com/graph-gophers/graphql-go"

	"expense-tracker/internal/service"
)

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	if _, err := r.viewer(ctx); err != nil {
		return nil, err
	}
	users, err := r.users.List(ctx)
	if err != nil {
		return nil, r.expose("users", err)
	}
	return r.userResolvers(users), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ UserID graphqlgo.ID }) (*userResolver, error) {
	if _, err := r.viewer(ctx); err != nil {
		return nil, err
	}
	user, err := r.users.GetByID(ctx, string(args.UserID))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, nil
		}
		return nil, r.expose("user", err)
	}
	return &userResolver{root: r, user: *user}, nil
}

// AuthUser resolves to null for anonymous requests.
func (r *Resolver) AuthUser(ctx context.Context) (*userResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, nil
	}
	return &userResolver{root: r, user: *viewer}, nil
}

func (r *Resolver) Transactions(ctx context.Context) ([]*transactionResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := r.txs.List(ctx, viewer.ID)
	if err != nil {
		return nil, r.expose("transactions", err)
	}
	return r.transactionResolvers(txs), nil
}

func (r *Resolver) Transaction(ctx context.Context, args struct{ TransactionID graphqlgo.ID }) (*transactionResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := r.txs.Get(ctx, viewer.ID, string(args.TransactionID))
	if err != nil {
		return nil, r.expose("transaction", err)
	}
	return &transactionResolver{root: r, tx: *tx}, nil
}

func (r *Resolver) CategoryStatistics(ctx context.Context) ([]*categoryStatisticsResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := r.txs.CategoryStatistics(ctx, viewer.ID)
	if err != nil {
		return nil, r.expose("categoryStatistics", err)
	}
	out := make([]*categoryStatisticsResolver, len(totals))
	for i := range totals {
		out[i] = &categoryStatisticsResolver{total: totals[i]}
	}
	return out, nil
}

func (r *Resolver) TransactionExports(ctx context.Context) ([]*exportedFileResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := r.exports.List(ctx, viewer.ID)
	if err != nil {
		return nil, r.expose("transactionExports", err)
	}
	out := make([]*exportedFileResolver, len(objects))
	for i := range objects {
		out[i] = &exportedFileResolver{object: objects[i]}
	}
	return out, nil
}
