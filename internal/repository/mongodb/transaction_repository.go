package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

type transactionDocument struct {
	ID          string               `bson:"_id"`
	UserID      string               `bson:"user_id"`
	Description string               `bson:"description"`
	PaymentType string               `bson:"payment_type"`
	Category    string               `bson:"category"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Location    string               `bson:"location"`
	Date        time.Time            `bson:"date"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newTransactionDocument(tx *domain.Transaction) (transactionDocument, error) {
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return transactionDocument{}, err
	}
	return transactionDocument{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Description: tx.Description,
		PaymentType: string(tx.PaymentType),
		Category:    string(tx.Category),
		Amount:      amount,
		Location:    tx.Location,
		Date:        tx.Date.UTC(),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}, nil
}

func (d transactionDocument) toDomain() (*domain.Transaction, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		ID:          d.ID,
		UserID:      d.UserID,
		Description: d.Description,
		PaymentType: domain.PaymentType(d.PaymentType),
		Category:    domain.Category(d.Category),
		Amount:      amount,
		Location:    d.Location,
		Date:        d.Date.UTC(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type TransactionRepository struct {
	coll  *mongo.Collection
	users *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{
		coll:  db.Collection(transactionsCollection),
		users: db.Collection(usersCollection),
	}
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	// documents have no foreign keys; check the owner exists first
	if err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: tx.UserID}}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("transaction owner %q: %w", tx.UserID, repository.ErrNotFound)
		}
		return fmt.Errorf("find transaction owner: %w", err)
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	doc, err := newTransactionDocument(tx)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	var doc transactionDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("transaction: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return doc.toDomain()
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	tx.UpdatedAt = time.Now().UTC()
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: tx.ID}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "description", Value: tx.Description},
		{Key: "payment_type", Value: string(tx.PaymentType)},
		{Key: "category", Value: string(tx.Category)},
		{Key: "amount", Value: amount},
		{Key: "location", Value: tx.Location},
		{Key: "date", Value: tx.Date.UTC()},
		{Key: "updated_at", Value: tx.UpdatedAt},
	}}})
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("transaction: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("transaction: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	cur, err := r.coll.Find(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	var docs []transactionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

func (r *TransactionRepository) CategoryTotals(ctx context.Context, userID string) ([]domain.CategoryTotal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate category totals: %w", err)
	}

	var rows []struct {
		Category string               `bson:"_id"`
		Total    primitive.Decimal128 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode category totals: %w", err)
	}

	totals := make([]domain.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		total, err := fromDecimal128(row.Total)
		if err != nil {
			return nil, err
		}
		totals = append(totals, domain.CategoryTotal{
			Category:    domain.Category(row.Category),
			TotalAmount: total,
		})
	}
	return totals, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode amount %s: %w", v, err)
	}
	return d, nil
}
