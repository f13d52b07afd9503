package graphql

import (
	"context"
	"errors"
	"time"

	graphqlgo "github.com/graph-gophers/graphql-go"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/service"
	"expense-tracker/internal/storage"
)

type userResolver struct {
	root *Resolver
	user domain.User
}

func (u *userResolver) ID() graphqlgo.ID { return graphqlgo.ID(u.user.ID) }

func (u *userResolver) Username() string { return u.user.Username }

func (u *userResolver) Name() string { return u.user.Name }

func (u *userResolver) ProfilePicture() *string {
	if u.user.ProfilePicture == "" {
		return nil
	}
	return &u.user.ProfilePicture
}

func (u *userResolver) Gender() string { return string(u.user.Gender) }

// Transactions only lists the viewer's own records; other users resolve to
// an empty list.
func (u *userResolver) Transactions(ctx context.Context) ([]*transactionResolver, error) {
	viewer, err := u.root.viewer(ctx)
	if err != nil || viewer.ID != u.user.ID {
		return []*transactionResolver{}, nil
	}
	txs, err := u.root.txs.List(ctx, viewer.ID)
	if err != nil {
		return nil, u.root.expose("User.transactions", err)
	}
	return u.root.transactionResolvers(txs), nil
}

type transactionResolver struct {
	root *Resolver
	tx   domain.Transaction
}

func (t *transactionResolver) ID() graphqlgo.ID { return graphqlgo.ID(t.tx.ID) }

func (t *transactionResolver) UserID() graphqlgo.ID { return graphqlgo.ID(t.tx.UserID) }

func (t *transactionResolver) Description() string { return t.tx.Description }

func (t *transactionResolver) PaymentType() string { return string(t.tx.PaymentType) }

func (t *transactionResolver) Category() string { return string(t.tx.Category) }

func (t *transactionResolver) Amount() float64 { return t.tx.Amount.InexactFloat64() }

func (t *transactionResolver) Location() *string {
	if t.tx.Location == "" {
		return nil
	}
	return &t.tx.Location
}

func (t *transactionResolver) Date() string { return domain.FormatDate(t.tx.Date) }

func (t *transactionResolver) User(ctx context.Context) (*userResolver, error) {
	user, err := t.root.users.GetByID(ctx, t.tx.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, nil
		}
		return nil, t.root.expose("Transaction.user", err)
	}
	return &userResolver{root: t.root, user: *user}, nil
}

type categoryStatisticsResolver struct {
	total domain.CategoryTotal
}

func (c *categoryStatisticsResolver) Category() string { return string(c.total.Category) }

func (c *categoryStatisticsResolver) TotalAmount() float64 { return c.total.TotalAmount.InexactFloat64() }

type logoutResponse struct {
	message string
}

func (l *logoutResponse) Message() string { return l.message }

type exportResolver struct {
	export service.Export
}

func (e *exportResolver) Key() string { return e.export.Key }

func (e *exportResolver) Location() string { return e.export.Location }

func (e *exportResolver) URL() string { return e.export.URL }

func (e *exportResolver) Count() int32 { return int32(e.export.Count) }

func (e *exportResolver) ExpiresAt() string { return e.export.ExpiresAt.UTC().Format(time.RFC3339) }

type exportedFileResolver struct {
	object storage.ObjectInfo
}

func (f *exportedFileResolver) Key() string { return f.object.Key }

func (f *exportedFileResolver) Size() float64 { return float64(f.object.Size) }

func (f *exportedFileResolver) LastModified() *string {
	if f.object.LastModified == nil || f.object.LastModified.IsZero() {
		return nil
	}
	v := f.object.LastModified.UTC().Format(time.RFC3339)
	return &v
}

func (r *Resolver) userResolvers(users []domain.User) []*userResolver {
	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = &userResolver{root: r, user: users[i]}
	}
	return out
}

func (r *Resolver) transactionResolvers(txs []domain.Transaction) []*transactionResolver {
	out := make([]*transactionResolver, len(txs))
	for i := range txs {
		out[i] = &transactionResolver{root: r, tx: txs[i]}
	}
	return out
}
