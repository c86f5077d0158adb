package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	mongoadapter "github.com/robertarktes/hotel-booking-backend/internal/adapters/mongo"
	"github.com/robertarktes/hotel-booking-backend/internal/booking"
	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

const (
	dateLayout     = "2006-01-02"
	searchCacheTTL = 5 * time.Minute
)

type RoomCatalog interface {
	FindByName(ctx context.Context, hotelName string) (*mongoadapter.RoomDoc, error)
	Search(ctx context.Context, city string, maxPrice int64) ([]mongoadapter.RoomDoc, error)
}

// BookingCreator is the same booking orchestrator the HTTP clients use; the
// chat flow is just a second caller, not a second implementation.
type BookingCreator interface {
	Create(ctx context.Context, userID primitive.ObjectID, req booking.CreateRequest) (primitive.ObjectID, error)
}

type SearchCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Service struct {
	parser   Parser
	rooms    RoomCatalog
	bookings BookingCreator
	cache    SearchCache
	logger   observability.Logger
}

func NewService(parser Parser, rooms RoomCatalog, bookings BookingCreator, cache SearchCache, logger observability.Logger) *Service {
	return &Service{
		parser:   parser,
		rooms:    rooms,
		bookings: bookings,
		cache:    cache,
		logger:   logger,
	}
}

type HotelSummary struct {
	HotelName     string `json:"hotelName"`
	PricePerNight int64  `json:"pricePerNight"`
}

type Reply struct {
	Reply  string         `json:"reply"`
	Hotels []HotelSummary `json:"hotels,omitempty"`
}

// Handle parses the free-text message and dispatches on the intent. A parser
// failure produces a friendly reply, never an error response.
func (s *Service) Handle(ctx context.Context, userID primitive.ObjectID, message string) *Reply {
	intent, err := s.parser.Parse(ctx, message)
	if err != nil {
		s.logger.WithError(err).Warn("intent parsing failed")
		return &Reply{Reply: "Sorry, I couldn't understand that. Can you rephrase?"}
	}

	switch intent.Intent {
	case "search_hotels":
		return s.searchHotels(ctx, intent)
	case "check_amenities":
		return s.checkAmenities(ctx, intent)
	case "book_hotel":
		return s.bookHotel(ctx, userID, intent)
	case "make_payment":
		return &Reply{Reply: "To complete your payment, please go to the Bookings page and follow the payment process. Let me know if you need help!"}
	default:
		return &Reply{Reply: "I'm here to help you search, check amenities, and book hotels. Try asking a hotel-related question!"}
	}
}

func (s *Service) searchHotels(ctx context.Context, intent *Intent) *Reply {
	maxPrice := parsePriceFilter(intent.Price)

	cacheKey := fmt.Sprintf("rooms:search:%s:%d", strings.ToLower(intent.City), maxPrice)
	var hotels []HotelSummary
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &hotels); err == nil && hit {
		return searchReply(hotels, maxPrice)
	}

	rooms, err := s.rooms.Search(ctx, intent.City, maxPrice)
	if err != nil {
		s.logger.WithError(err).Error("room search failed")
		return &Reply{Reply: "Sorry, something went wrong while searching hotels."}
	}
	hotels = make([]HotelSummary, 0, len(rooms))
	for _, r := range rooms {
		hotels = append(hotels, HotelSummary{HotelName: r.HotelName, PricePerNight: r.PricePerNight})
	}

	if err := s.cache.SetJSON(ctx, cacheKey, hotels, searchCacheTTL); err != nil {
		s.logger.WithError(err).Debug("failed to cache room search")
	}

	return searchReply(hotels, maxPrice)
}

func searchReply(hotels []HotelSummary, maxPrice int64) *Reply {
	if len(hotels) == 0 {
		return &Reply{Reply: "I couldn't find any hotels matching that."}
	}
	text := "Here are available hotels:"
	if maxPrice > 0 {
		text = fmt.Sprintf("Here are hotels under %d:", maxPrice)
	}
	return &Reply{Reply: text, Hotels: hotels}
}

func (s *Service) checkAmenities(ctx context.Context, intent *Intent) *Reply {
	if intent.Hotel == "" {
		return &Reply{Reply: "Which hotel would you like to know about?"}
	}
	room, err := s.rooms.FindByName(ctx, intent.Hotel)
	if err != nil {
		return &Reply{Reply: "Sorry, I couldn't find that hotel."}
	}
	return &Reply{Reply: fmt.Sprintf("%s offers: %s", room.HotelName, strings.Join(room.Amenities, ", "))}
}

func (s *Service) bookHotel(ctx context.Context, userID primitive.ObjectID, intent *Intent) *Reply {
	if intent.Hotel == "" || intent.CheckIn == "" {
		return &Reply{Reply: "Please provide the hotel name and date to proceed with booking."}
	}

	room, err := s.rooms.FindByName(ctx, intent.Hotel)
	if err != nil {
		return &Reply{Reply: fmt.Sprintf("Sorry, I couldn't find a hotel named %q.", intent.Hotel)}
	}

	checkIn, err := time.Parse(dateLayout, intent.CheckIn)
	if err != nil {
		return &Reply{Reply: "Something went wrong during booking. Please check the date format (YYYY-MM-DD) or try again later."}
	}
	checkOut := intent.CheckOut
	if checkOut == "" {
		checkOut = checkIn.AddDate(0, 0, 1).Format(dateLayout)
	}
	guests := intent.GuestCount
	if guests < 1 {
		guests = 1
	}

	id, err := s.bookings.Create(ctx, userID, booking.CreateRequest{
		RoomID:     room.ID.Hex(),
		CheckIn:    intent.CheckIn,
		CheckOut:   checkOut,
		GuestCount: guests,
	})
	if err != nil {
		s.logger.WithError(err).WithField("hotel", room.HotelName).Warn("chat booking failed")
		if domainErrors(err) {
			return &Reply{Reply: "Booking failed: " + err.Error()}
		}
		return &Reply{Reply: "Booking failed. Please try again later or choose a different hotel."}
	}

	return &Reply{Reply: fmt.Sprintf("Booking confirmed at %s for %s. Your booking ID is %s.", room.HotelName, intent.CheckIn, id.Hex())}
}

func domainErrors(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidDateRange,
		domain.ErrInvalidGuestCount,
		domain.ErrUnknownRoomType,
		domain.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parsePriceFilter pulls the numeric part out of a price slot like
// "under 2000" or "₹1500".
func parsePriceFilter(price string) int64 {
	var n int64
	seen := false
	for _, r := range price {
		if r >= '0' && r <= '9' {
			n = n*10 + int64(r-'0')
			seen = true
		}
	}
	if !seen {
		return 0
	}
	return n
}
