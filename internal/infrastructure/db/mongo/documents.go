package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minimal/storefront/internal/core/domain"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email,omitempty"`
	Role         string             `bson:"role"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type reviewDoc struct {
	UserID   string `bson:"user_id"`
	Username string `bson:"username"`
	Rating   int    `bson:"rating"`
	Body     string `bson:"review_body"`
	Date     string `bson:"date,omitempty"`
}

type productDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Title       string               `bson:"title,omitempty"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	Images      []string             `bson:"images,omitempty"`
	Tags        []string             `bson:"tags,omitempty"`
	Category    string               `bson:"category,omitempty"`
	Reviews     []reviewDoc          `bson:"reviews"`
}

// lineItemDoc embeds a flat product snapshot; the product may later change or
// disappear from the catalog.
type lineItemDoc struct {
	TrueID      string               `bson:"true_id"`
	ProductID   string               `bson:"product_id"`
	Name        string               `bson:"name"`
	Title       string               `bson:"title,omitempty"`
	Description string               `bson:"description,omitempty"`
	Price       primitive.Decimal128 `bson:"price"`
	Images      []string             `bson:"images,omitempty"`
	Category    string               `bson:"category,omitempty"`
	Quantity    int                  `bson:"quantity"`
}

type cartDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    string               `bson:"user_id"`
	LineItems []lineItemDoc        `bson:"line_items"`
	TotalCost primitive.Decimal128 `bson:"total_cost"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

type orderDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	CartID       string               `bson:"cart_id"`
	UserID       string               `bson:"user_id"`
	Address      string               `bson:"address"`
	OrderDate    time.Time            `bson:"order_date"`
	DeliveryDate time.Time            `bson:"delivery_date"`
	TotalCost    primitive.Decimal128 `bson:"total_cost"`
	LineItems    []lineItemDoc        `bson:"line_items"`
}

// --- conversions ---

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		Role:         domain.ParseRole(d.Role),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

func toReviewDocs(rs []domain.Review) []reviewDoc {
	out := make([]reviewDoc, 0, len(rs))
	for _, r := range rs {
		out = append(out, reviewDoc{UserID: r.UserID, Username: r.Username, Rating: r.Rating, Body: r.Body, Date: r.Date})
	}
	return out
}

func toProductDoc(p *domain.Product) productDoc {
	return productDoc{
		Name:        p.Name,
		Title:       p.Title,
		Description: p.Description,
		Price:       toDecimal128(p.Price),
		Images:      p.Images,
		Tags:        p.Tags,
		Category:    p.Category,
		Reviews:     toReviewDocs(p.Reviews),
	}
}

func (d productDoc) toDomain() *domain.Product {
	p := &domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Title:       d.Title,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		Images:      d.Images,
		Tags:        d.Tags,
		Category:    d.Category,
	}
	for _, r := range d.Reviews {
		p.Reviews = append(p.Reviews, domain.Review{UserID: r.UserID, Username: r.Username, Rating: r.Rating, Body: r.Body, Date: r.Date})
	}
	return p
}

func toLineItemDocs(items []domain.LineItem) []lineItemDoc {
	out := make([]lineItemDoc, 0, len(items))
	for _, li := range items {
		out = append(out, lineItemDoc{
			TrueID:      li.TrueID,
			ProductID:   li.Product.ID,
			Name:        li.Product.Name,
			Title:       li.Product.Title,
			Description: li.Product.Description,
			Price:       toDecimal128(li.Product.Price),
			Images:      li.Product.Images,
			Category:    li.Product.Category,
			Quantity:    li.Quantity,
		})
	}
	return out
}

func fromLineItemDocs(docs []lineItemDoc) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.LineItem{
			TrueID: d.TrueID,
			Product: domain.Product{
				ID:          d.ProductID,
				Name:        d.Name,
				Title:       d.Title,
				Description: d.Description,
				Price:       fromDecimal128(d.Price),
				Images:      d.Images,
				Category:    d.Category,
			},
			Quantity: d.Quantity,
		})
	}
	return out
}

func (d cartDoc) toDomain() *domain.Cart {
	return &domain.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		LineItems: fromLineItemDocs(d.LineItems),
		TotalCost: fromDecimal128(d.TotalCost),
	}
}

func (d orderDoc) toDomain() *domain.Order {
	return &domain.Order{
		ID:           d.ID.Hex(),
		CartID:       d.CartID,
		UserID:       d.UserID,
		Address:      d.Address,
		OrderDate:    d.OrderDate.UTC(),
		DeliveryDate: d.DeliveryDate.UTC(),
		TotalCost:    fromDecimal128(d.TotalCost),
		LineItems:    fromLineItemDocs(d.LineItems),
	}
}

// objectID parses a hex id. Malformed ids cannot exist in the store, so they
// are reported as notFound.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}
