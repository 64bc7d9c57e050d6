package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

// CartRepository keeps one cart document per user, keyed by a unique user_id
// index.
type CartRepository struct {
	coll *mongo.Collection
}

var _ ports.CartRepository = (*CartRepository)(nil)

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(collectionCarts)}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	oid, err := objectID(id, domain.ErrNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *CartRepository) findOne(ctx context.Context, filter bson.M) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc cartDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return doc.toDomain(), nil
}

// Save upserts on user_id when the cart is new so two concurrent first writes
// for the same user converge on one document.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	fields := bson.M{
		"user_id":    cart.UserID,
		"line_items": toLineItemDocs(cart.LineItems),
		"total_cost": toDecimal128(cart.TotalCost),
		"updated_at": time.Now().UTC(),
	}

	filter := bson.M{"user_id": cart.UserID}
	if cart.ID != "" {
		oid, err := objectID(cart.ID, domain.ErrNotFound)
		if err != nil {
			return nil, err
		}
		filter = bson.M{"_id": oid}
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(cart.ID == "").
		SetReturnDocument(options.After)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var saved cartDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&saved); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return saved.toDomain(), nil
}
