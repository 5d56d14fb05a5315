package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ksaito/hatchobori-lunch-backend/config"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
)

var ErrExtractPageUnavailable = errors.New("tabelog page could not be fetched")

// ページ全体ではなく構造化データだけを渡してトークン消費を抑える
var (
	titlePattern  = regexp.MustCompile(`(?s)<title>.*?</title>`)
	metaPattern   = regexp.MustCompile(`<meta[^>]*>`)
	jsonLdPattern = regexp.MustCompile(`(?s)<script type="application/ld\+json">.*?</script>`)
)

const extractMinHTMLLength = 1000

// ExtractedRestaurant holds the fields the model pulled out of a tabelog
// page. Genres are raw category names; resolution to IDs happens separately.
type ExtractedRestaurant struct {
	Name          string   `json:"name"`
	Genres        []string `json:"genres"`
	PriceMin      *int     `json:"price_min"`
	PriceMax      *int     `json:"price_max"`
	Address       string   `json:"address"`
	Description   string   `json:"description"`
	BusinessHours string   `json:"business_hours"`
}

// ExtractResult pairs the extracted fields with the category IDs whose names
// matched, ready to prefill the restaurant form.
type ExtractResult struct {
	Restaurant         ExtractedRestaurant `json:"restaurant"`
	MatchedCategoryIDs []string            `json:"matched_category_ids"`
	TabelogURL         string              `json:"tabelog_url"`
}

// ExtractService autofills the restaurant form from a tabelog page: fetch,
// reduce the HTML to its structured data, and ask the model for the fields.
type ExtractService interface {
	ExtractFromTabelog(pageURL string) (*ExtractResult, error)
}

type extractService struct {
	config       *config.OpenAIConfig
	categoryRepo repository.CategoryRepository
	httpClient   *http.Client
	pageClient   *http.Client
}

func NewExtractService(cfg *config.OpenAIConfig, categoryRepo repository.CategoryRepository) ExtractService {
	return &extractService{
		config:       cfg,
		categoryRepo: categoryRepo,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pageClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *extractService) ExtractFromTabelog(pageURL string) (*ExtractResult, error) {
	if s.config.APIKey == "" {
		return nil, ErrAINotConfigured
	}

	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" || !strings.Contains(pageURL, "tabelog.com") {
		return nil, newValidationError(map[string]string{
			"url": "有効な食べログURLを入力してください",
		})
	}

	html, err := s.fetchPage(pageURL)
	if err != nil {
		logger.Warn("Failed to fetch tabelog page", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return nil, err
	}

	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		return nil, err
	}

	prompt := buildExtractPrompt(extractEssentialHTML(html), categories)
	reply, err := callChatCompletion(s.httpClient, s.config, []openAIMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logger.Error("Failed to call OpenAI API for extraction", err, map[string]interface{}{
			"url": pageURL,
		})
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	extracted, err := parseExtractedRestaurant(reply)
	if err != nil {
		logger.Error("Failed to parse extraction reply", err, map[string]interface{}{
			"url": pageURL,
		})
		return nil, err
	}

	logger.Info("Restaurant extracted from tabelog page", map[string]interface{}{
		"url":    pageURL,
		"name":   extracted.Name,
		"genres": len(extracted.Genres),
	})

	return &ExtractResult{
		Restaurant:         *extracted,
		MatchedCategoryIDs: matchCategoryIDs(extracted.Genres, categories),
		TabelogURL:         pageURL,
	}, nil
}

func (s *extractService) fetchPage(pageURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractPageUnavailable, err)
	}
	// 食べログはブラウザ相当のヘッダーがないとブロックする
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.7,en;q=0.3")

	resp, err := s.pageClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractPageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrExtractPageUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractPageUnavailable, err)
	}
	if len(body) < extractMinHTMLLength {
		return "", fmt.Errorf("%w: page content too short", ErrExtractPageUnavailable)
	}
	return string(body), nil
}

// extractEssentialHTML keeps only the title, meta tags and JSON-LD blocks of
// a page.
func extractEssentialHTML(html string) string {
	parts := make([]string, 0, 8)
	if title := titlePattern.FindString(html); title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, metaPattern.FindAllString(html, -1)...)
	parts = append(parts, jsonLdPattern.FindAllString(html, -1)...)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func buildExtractPrompt(essentialHTML string, categories []model.Category) string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	var prompt strings.Builder
	prompt.WriteString("以下は食べログの店舗ページから抽出した重要情報です。")
	prompt.WriteString("JSON-LD形式の構造化データ（\"@type\":\"Restaurant\"）を優先的に参照して、レストラン情報を抽出してください。\n\n")

	prompt.WriteString("ジャンルについて:\n")
	prompt.WriteString("- JSON-LDの\"servesCuisine\"、タイトル、メタタグからジャンルを確認する\n")
	prompt.WriteString("- 次のカテゴリから該当するものを全て選ぶ（複数可、該当なしは空配列）: ")
	prompt.WriteString(strings.Join(names, "、"))
	prompt.WriteString("\n\n")

	prompt.WriteString("価格について:\n")
	prompt.WriteString("- ランチの価格帯を優先する\n")
	prompt.WriteString("- 「〜1000円」は price_max: 1000、「1000円〜2000円」は price_min: 1000, price_max: 2000 と解釈する\n\n")

	prompt.WriteString("説明について:\n")
	prompt.WriteString("- 店舗の特徴、雰囲気、おすすめメニューを200文字程度にまとめる\n\n")

	prompt.WriteString("次のキーを持つJSONオブジェクトだけを返してください（説明文やコードブロックは不要）:\n")
	prompt.WriteString(`{"name": string, "genres": [string], "price_min": number|null, "price_max": number|null, "address": string, "description": string, "business_hours": string}`)
	prompt.WriteString("\n\nHTML（抽出済み）:\n")
	prompt.WriteString(essentialHTML)

	return prompt.String()
}

// parseExtractedRestaurant decodes the model reply, tolerating a markdown
// code fence around the JSON.
func parseExtractedRestaurant(reply string) (*ExtractedRestaurant, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var extracted ExtractedRestaurant
	if err := json.Unmarshal([]byte(cleaned), &extracted); err != nil {
		return nil, fmt.Errorf("failed to decode extraction reply: %w", err)
	}
	if strings.TrimSpace(extracted.Name) == "" {
		return nil, errors.New("extraction reply has no restaurant name")
	}
	return &extracted, nil
}

// matchCategoryIDs resolves the model's genre names against the registered
// categories. Names with no exact match are dropped.
func matchCategoryIDs(genres []string, categories []model.Category) []string {
	byName := make(map[string]string, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	ids := make([]string, 0, len(genres))
	for _, genre := range genres {
		if id, ok := byName[strings.TrimSpace(genre)]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
