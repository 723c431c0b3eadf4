package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"petconnect/internal/models"
	"petconnect/internal/observability"
	"petconnect/internal/repository"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
	geminiTimeout        = 30 * time.Second
	geminiTextPath       = "candidates.0.content.parts.0.text"
)

const advicePrompt = `You are a veterinary assistant AI.
Analyze the pet image and return ONLY valid JSON with this exact structure:
{
  "animal_type": "",
  "visible_condition": "",
  "possible_health_observations": [],
  "urgency_level": "low | medium | high",
  "care_advice": [],
  "disclaimer": ""
}
Rules:
- No disease diagnosis
- Base answers only on visible features
- No markdown
- No extra text`

const dietPrompt = `You are a veterinary nutrition assistant AI for pets in INDIA.
IMPORTANT GUIDELINES:
- This is PET nutrition, NOT human diet advice
- Commercial pet food should be the primary diet
- Home ingredients are only occasional supplements
- DO NOT suggest beef or beef products
- Avoid pork
- Use pet-safe ingredients commonly available in India
- Never suggest spices, salt, sugar, or cooked human meals
- Recommend ONLY from the provided product list
- Never invent products

Pet details:
- Name: %s
- Type: %s
- Breed: %s
- Age (years): %d
- Weight (kg): %g
- Activity level: %s
- Goal: %s

Available products (JSON):
%s

Return ONLY valid JSON in this structure:
{
  "diet_summary": "",
  "recommended_products": [
    {
      "product_id": "",
      "product_name": "",
      "reason": ""
    }
  ],
  "feeding_guidelines": "",
  "care_tips": [],
  "disclaimer": ""
}

Rules:
- No medical diagnosis
- No human meal plans
- No treatment claims
- Use general nutritional guidelines only
- Recommended products MUST match provided product list
- No markdown
- No extra text`

// AIConfig configures the Gemini proxy.
type AIConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerMinute int
}

// DietRequest describes the pet a diet plan is generated for.
type DietRequest struct {
	PetName       string  `json:"petName"`
	PetType       string  `json:"petType"`
	Breed         string  `json:"breed"`
	AgeYears      int     `json:"ageYears"`
	WeightKg      float64 `json:"weightKg"`
	ActivityLevel string  `json:"activityLevel"`
	Goal          string  `json:"goal"`
}

func (r *DietRequest) validate() error {
	r.PetType = strings.TrimSpace(r.PetType)
	r.Breed = strings.TrimSpace(r.Breed)
	r.ActivityLevel = strings.TrimSpace(r.ActivityLevel)
	r.Goal = strings.TrimSpace(r.Goal)
	switch {
	case r.PetType == "":
		return models.NewValidationError("Pet type is required")
	case r.Breed == "":
		return models.NewValidationError("Breed is required")
	case r.AgeYears < 0 || r.AgeYears > 50:
		return models.NewValidationError("Age must be between 0 and 50 years")
	case r.WeightKg < 0.1 || r.WeightKg > 300:
		return models.NewValidationError("Weight must be between 0.1 and 300 kg")
	case r.ActivityLevel == "":
		return models.NewValidationError("Activity level is required")
	case r.Goal == "":
		return models.NewValidationError("Goal is required")
	}
	return nil
}

// AIService proxies pet-care prompts to Gemini and returns the model's JSON text.
type AIService struct {
	productRepo repository.ProductRepository
	client      *http.Client
	limiter     *rate.Limiter
	apiKey      string
	model       string
	baseURL     string
}

func NewAIService(productRepo repository.ProductRepository, cfg AIConfig) *AIService {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	return &AIService{
		productRepo: productRepo,
		client:      &http.Client{Timeout: geminiTimeout},
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
}

func newGeminiRequest(parts ...geminiPart) geminiRequest {
	var req geminiRequest
	req.Contents = append(req.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})
	return req
}

// Advice analyzes a pet photo.
func (s *AIService) Advice(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", models.NewValidationError("Image is required")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", models.NewValidationError("Only image files are allowed")
	}
	req := newGeminiRequest(
		geminiPart{Text: advicePrompt},
		geminiPart{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	)
	return s.generate(ctx, "advice", req)
}

type promptProduct struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

// DietAndProducts builds a diet plan that recommends products from the catalogue.
func (s *AIService) DietAndProducts(ctx context.Context, in DietRequest) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	products, err := s.productRepo.ListAvailable(ctx)
	if err != nil {
		return "", err
	}
	catalogue := make([]promptProduct, 0, len(products))
	for _, p := range products {
		item := promptProduct{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price}
		if p.Category != nil {
			item.Category = p.Category.Name
		}
		catalogue = append(catalogue, item)
	}
	catalogueJSON, err := json.Marshal(catalogue)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	petName := in.PetName
	if strings.TrimSpace(petName) == "" {
		petName = "Unknown"
	}
	prompt := fmt.Sprintf(dietPrompt, petName, in.PetType, in.Breed, in.AgeYears, in.WeightKg,
		in.ActivityLevel, in.Goal, catalogueJSON)
	return s.generate(ctx, "diet", newGeminiRequest(geminiPart{Text: prompt}))
}

func (s *AIService) generate(ctx context.Context, operation string, body geminiRequest) (string, error) {
	text, err := s.call(ctx, body)
	result := "success"
	switch {
	case models.IsCode(err, models.CodeTooManyRequests):
		result = "rate_limited"
	case err != nil:
		result = "error"
	}
	observability.AIRequests.WithLabelValues(operation, result).Inc()
	return text, err
}

func (s *AIService) call(ctx context.Context, body geminiRequest) (string, error) {
	if s.apiKey == "" {
		return "", models.NewUnavailableError("AI service is not configured")
	}
	if !s.limiter.Allow() {
		return "", models.NewTooManyRequestsError("AI service is busy, try again shortly")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)

	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("gemini request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", models.NewInternalError(fmt.Errorf("gemini api error: %d - %s", resp.StatusCode, raw))
	}

	text := gjson.GetBytes(raw, geminiTextPath)
	if !text.Exists() {
		return "", models.NewInternalError(fmt.Errorf("gemini response missing %s", geminiTextPath))
	}
	return stripFence(text.String()), nil
}

// stripFence unwraps a ```json block, or failing that a bare ``` block.
func stripFence(text string) string {
	if text == "" {
		return "{}"
	}
	for _, fence := range []string{"```json", "```"} {
		_, after, found := strings.Cut(text, fence)
		if !found {
			continue
		}
		inner, _, _ := strings.Cut(after, "```")
		text = inner
		break
	}
	return strings.TrimSpace(text)
}
