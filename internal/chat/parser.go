package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/robertarktes/hotel-booking-backend/internal/domain"
	"github.com/robertarktes/hotel-booking-backend/internal/observability"
)

// Intent is the structured output of the language-model parser. Every field
// except Intent is optional slot data.
type Intent struct {
	Intent     string `json:"intent"`
	City       string `json:"city,omitempty"`
	Price      string `json:"price,omitempty"`
	Hotel      string `json:"hotel,omitempty"`
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
	RoomType   string `json:"room_type,omitempty"`
	GuestCount int    `json:"guest_count,omitempty"`
	BookingID  string `json:"booking_id,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
}

type Parser interface {
	Parse(ctx context.Context, message string) (*Intent, error)
}

const intentPrompt = `You are a hotel booking assistant bot. Given a user query, extract the following information in JSON:
- intent: one of ["search_hotels", "book_hotel", "check_amenities", "make_payment"]
- city: if mentioned
- price: if the user mentions a price limit (e.g. under 2000)
- hotel: if a specific hotel name is mentioned
- check_in: booking start date as YYYY-MM-DD, if mentioned
- check_out: booking end date as YYYY-MM-DD, if mentioned
- room_type: if mentioned (single, double, suite)
- guest_count: number of guests, if mentioned
- booking_id: if the user mentions a booking ID
- amount: if the user mentions a price to pay

User query: %q
Respond only with a JSON object.`

// GeminiParser extracts booking intents with the Gemini generateContent API.
// No SDK; the REST surface is a single POST.
type GeminiParser struct {
	httpClient *http.Client
	apiKey     string
	model      string
	logger     observability.Logger
}

func NewGeminiParser(apiKey, model string, logger observability.Logger) *GeminiParser {
	return &GeminiParser{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiParser) Parse(ctx context.Context, message string) (*Intent, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: fmt.Sprintf(intentPrompt, message)}}}},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gemini request"), domain.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		p.logger.WithField("status", resp.StatusCode).Error("gemini returned non-200: ", string(data))
		return nil, errors.Mark(errors.Newf("gemini status %d", resp.StatusCode), domain.ErrUpstream)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gemini response decode"), domain.ErrUpstream)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, errors.Mark(errors.New("gemini returned no candidates"), domain.ErrUpstream)
	}

	var intent Intent
	cleaned := stripCodeFence(gr.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "intent decode"), domain.ErrUpstream)
	}
	return &intent, nil
}

// stripCodeFence removes the ```json fences models like to wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
