package graphql

import (
	"context"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/shopspring/decimal"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/service"
)

const logoutMessage = "Logged out successfully"

type signUpInput struct {
	Username string
	Name     string
	Password string
	Gender   string
}

type loginInput struct {
	Username string
	Password string
}

type createTransactionInput struct {
	Description string
	PaymentType string
	Category    string
	Amount      float64
	Location    *string
	Date        string
}

type updateTransactionInput struct {
	TransactionID graphqlgo.ID
	Description   *string
	PaymentType   *string
	Category      *string
	Amount        *float64
	Location      *string
	Date          *string
}

// SignUp registers the user and logs them in.
func (r *Resolver) SignUp(ctx context.Context, args struct{ Input signUpInput }) (*userResolver, error) {
	user, err := r.users.SignUp(ctx, service.SignUpInput{
		Username: args.Input.Username,
		Name:     args.Input.Name,
		Password: args.Input.Password,
		Gender:   args.Input.Gender,
	})
	if err != nil {
		return nil, r.expose("signUp", err)
	}
	if err := r.startSession(ctx, user); err != nil {
		// the account exists now; the client has to log in separately
		r.logger.WithError(err).WithField("user_id", user.ID).Error("signed up but could not start session")
		return nil, r.expose("signUp", err)
	}
	return &userResolver{root: r, user: *user}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Input loginInput }) (*userResolver, error) {
	user, err := r.users.Authenticate(ctx, args.Input.Username, args.Input.Password)
	if err != nil {
		return nil, r.expose("login", err)
	}
	if err := r.startSession(ctx, user); err != nil {
		return nil, r.expose("login", err)
	}
	return &userResolver{root: r, user: *user}, nil
}

func (r *Resolver) Logout(ctx context.Context) (*logoutResponse, error) {
	if _, err := r.viewer(ctx); err != nil {
		return nil, err
	}
	s, err := r.session(ctx)
	if err != nil {
		return nil, r.expose("logout", err)
	}
	if err := s.Logout(ctx); err != nil {
		return nil, r.expose("logout", err)
	}
	return &logoutResponse{message: logoutMessage}, nil
}

func (r *Resolver) CreateTransaction(ctx context.Context, args struct{ Input createTransactionInput }) (*transactionResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	in := service.TransactionInput{
		Description: args.Input.Description,
		PaymentType: args.Input.PaymentType,
		Category:    args.Input.Category,
		Amount:      decimal.NewFromFloat(args.Input.Amount),
		Date:        args.Input.Date,
	}
	if args.Input.Location != nil {
		in.Location = *args.Input.Location
	}
	tx, err := r.txs.Create(ctx, viewer.ID, in)
	if err != nil {
		return nil, r.expose("createTransaction", err)
	}
	return &transactionResolver{root: r, tx: *tx}, nil
}

func (r *Resolver) UpdateTransaction(ctx context.Context, args struct{ Input updateTransactionInput }) (*transactionResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	patch := service.TransactionPatch{
		Description: args.Input.Description,
		PaymentType: args.Input.PaymentType,
		Category:    args.Input.Category,
		Location:    args.Input.Location,
		Date:        args.Input.Date,
	}
	if args.Input.Amount != nil {
		amount := decimal.NewFromFloat(*args.Input.Amount)
		patch.Amount = &amount
	}
	tx, err := r.txs.Update(ctx, viewer.ID, string(args.Input.TransactionID), patch)
	if err != nil {
		return nil, r.expose("updateTransaction", err)
	}
	return &transactionResolver{root: r, tx: *tx}, nil
}

func (r *Resolver) DeleteTransaction(ctx context.Context, args struct{ TransactionID graphqlgo.ID }) (*transactionResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := r.txs.Delete(ctx, viewer.ID, string(args.TransactionID))
	if err != nil {
		return nil, r.expose("deleteTransaction", err)
	}
	return &transactionResolver{root: r, tx: *tx}, nil
}

func (r *Resolver) ExportTransactions(ctx context.Context) (*exportResolver, error) {
	viewer, err := r.viewer(ctx)
	if err != nil {
		return nil, err
	}
	export, err := r.exports.Export(ctx, viewer.ID)
	if err != nil {
		return nil, r.expose("exportTransactions", err)
	}
	return &exportResolver{export: *export}, nil
}

func (r *Resolver) startSession(ctx context.Context, user *domain.User) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	return s.Login(ctx, user)
}
