package mongo

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

type RoomCatalog struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewRoomCatalog(db *mongo.Database, logger observability.Logger) *RoomCatalog {
	return &RoomCatalog{
		coll:   db.Collection("rooms"),
		logger: logger,
	}
}

type RoomDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	HotelName     string             `bson:"hotel_name" json:"hotelName"`
	City          string             `bson:"city" json:"city"`
	StreetAddress string             `bson:"street_address" json:"streetAddress"`
	RoomType      string             `bson:"room_type" json:"roomType"`
	PricePerNight int64              `bson:"price_per_night" json:"pricePerNight"`
	Amenities     []string           `bson:"amenities" json:"amenities"`
	Images        []string           `bson:"images" json:"images"`
	IsAvailable   bool               `bson:"is_available" json:"isAvailable"`
	CreatedAt     time.Time          `bson:"created_at" json:"-"`
}

func (c *RoomCatalog) Get(ctx context.Context, id primitive.ObjectID) (*RoomDoc, error) {
	var room RoomDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		c.logger.WithError(err).Error("failed to get room")
		return nil, err
	}
	return &room, nil
}

// FindByName matches the hotel name exactly, ignoring case.
func (c *RoomCatalog) FindByName(ctx context.Context, hotelName string) (*RoomDoc, error) {
	var room RoomDoc
	filter := bson.M{"hotel_name": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(hotelName) + "$",
		Options: "i",
	}}
	err := c.coll.FindOne(ctx, filter).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		c.logger.WithError(err).Error("failed to find room by name")
		return nil, err
	}
	return &room, nil
}

// Search filters by city and maximum nightly price; zero values mean no
// filter on that field.
func (c *RoomCatalog) Search(ctx context.Context, city string, maxPrice int64) ([]RoomDoc, error) {
	filter := bson.M{}
	if city != "" {
		filter["city"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(city) + "$", Options: "i"}
	}
	if maxPrice > 0 {
		filter["price_per_night"] = bson.M{"$lte": maxPrice}
	}

	cur, err := c.coll.Find(ctx, filter)
	if err != nil {
		c.logger.WithError(err).Error("failed to search rooms")
		return nil, err
	}
	var rooms []RoomDoc
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RoomCatalog) Create(ctx context.Context, room RoomDoc) (primitive.ObjectID, error) {
	room.CreatedAt = time.Now().UTC()
	res, err := c.coll.InsertOne(ctx, room)
	if err != nil {
		c.logger.WithError(err).Error("failed to create room")
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}
