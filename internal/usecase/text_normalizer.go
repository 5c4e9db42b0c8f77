package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nutriscan/backend/internal/domain"
	"go.uber.org/zap"
)

// TextNormalizer turns noisy recognized label text into a clean ingredient
// list. It never fails; worst case the input comes back unchanged.
type TextNormalizer struct {
	logger *zap.Logger
}

// NewTextNormalizer creates a text normalizer. A nil logger disables logging.
func NewTextNormalizer(logger *zap.Logger) *TextNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextNormalizer{logger: logger}
}

// ingredientStartMarkers open an ingredients section. Ordered: earlier entries
// win ties at the same character offset, so the colon variants come first.
var ingredientStartMarkers = []string{
	"ingredients:", "ingredientes:", "ingrédients:", "zutaten:", "ingredienti:",
	"ingredients", "ingredientes", "ingrédients", "zutaten", "ingredienti",
}

// nutritionTableMarkers open a nutrition table. These terminate an ingredients
// section at any offset; they do not occur inside legitimate ingredient lists.
var nutritionTableMarkers = []string{
	"nutrition", "nutritional", "typical values", "nutrient",
}

// weakEndMarkers hint at post-ingredients label content (allergen boxes,
// storage advice, manufacturer addresses). They can false-positive inside a
// short ingredient list, so they only truncate past the 30-character guard.
var weakEndMarkers = []string{
	"energy", "per 100g", "per 100ml",
	"allergy advice", "allergen", "suitable for",
	"storage", "store in", "keep refrigerated", "best before",
	"manufactured", "produced by", "packed for", "distributed by", "address",
	"united kingdom", "great britain", "ireland", "germany", "france",
	"italy", "spain", "netherlands", "poland", "usa",
}

const (
	// minSectionBeforeWeakMarker protects short ingredient lists from weak
	// end-marker hits.
	minSectionBeforeWeakMarker = 30

	// minTextBeforeNutritionCut is the equivalent guard inside Clean.
	minTextBeforeNutritionCut = 50

	// minIngredientLineLength marks long comma-separated lines as
	// ingredient-like even without parens, E-numbers or percentages.
	minIngredientLineLength = 50
)

// eNumberPattern matches EU additive codes such as E330 or E160a.
var eNumberPattern = regexp.MustCompile(`(?i)\be\d{3}[a-z]?\b`)

// foldForScan lowercases text for marker scanning while preserving byte
// offsets, so an index found in the folded string slices the original cleanly.
// The few case mappings that change encoded length (the Kelvin sign, the
// dotted capital I) are left unfolded; no marker contains them.
func foldForScan(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		l := unicode.ToLower(r)
		if utf8.RuneLen(l) != utf8.RuneLen(r) {
			l = r
		}
		b.WriteRune(l)
	}
	return b.String()
}

// ExtractIngredientsSection scans raw recognized text for an ingredients
// section. It looks for the earliest start marker, truncates the section at
// the first end marker, and falls back to a line-oriented heuristic when no
// marker exists. Unmatchable input is returned unchanged.
func (t *TextNormalizer) ExtractIngredientsSection(raw string) string {
	lowered := foldForScan(raw)

	start, markerLen := -1, 0
	for _, marker := range ingredientStartMarkers {
		if idx := strings.Index(lowered, marker); idx >= 0 && (start == -1 || idx < start) {
			start, markerLen = idx, len(marker)
		}
	}

	if start >= 0 {
		section := raw[start+markerLen:]
		section = truncateAtEndMarker(section)
		t.logger.Debug("extracted ingredients section by marker",
			zap.Int("offset", start), zap.Int("length", len(section)))
		return strings.TrimSpace(section)
	}

	if lines := collectIngredientLines(raw); lines != "" {
		t.logger.Debug("extracted ingredients section by line heuristic",
			zap.Int("length", len(lines)))
		return lines
	}

	return raw
}

// truncateAtEndMarker cuts the candidate section at the first end marker.
// Nutrition-table markers cut at any offset; weak markers only past the guard.
func truncateAtEndMarker(section string) string {
	lowered := foldForScan(section)

	cut := -1
	for _, marker := range nutritionTableMarkers {
		if idx := strings.Index(lowered, marker); idx >= 0 && (cut == -1 || idx < cut) {
			cut = idx
		}
	}
	if cut >= 0 {
		return section[:cut]
	}

	for _, marker := range weakEndMarkers {
		if idx := strings.Index(lowered, marker); idx >= 0 && (cut == -1 || idx < cut) {
			cut = idx
		}
	}
	if cut >= minSectionBeforeWeakMarker {
		return section[:cut]
	}
	return section
}

// collectIngredientLines is the fallback for text with no start marker: find
// the first ingredient-like line, append subsequent comma-containing lines,
// and stop at the first line that is neither.
func collectIngredientLines(raw string) string {
	var collected []string
	started := false

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !started {
			if looksLikeIngredientLine(trimmed) {
				started = true
				collected = append(collected, trimmed)
			}
			continue
		}
		if strings.Contains(trimmed, ",") {
			collected = append(collected, trimmed)
			continue
		}
		break
	}

	return strings.Join(collected, " ")
}

// looksLikeIngredientLine reports whether a line reads like part of an
// ingredient list: it must contain a comma plus one of a parenthesis pair, an
// E-number, a percentage, or simply enough length.
func looksLikeIngredientLine(line string) bool {
	if !strings.Contains(line, ",") {
		return false
	}
	hasParens := strings.Contains(line, "(") && strings.Contains(line, ")")
	return hasParens ||
		eNumberPattern.MatchString(line) ||
		strings.Contains(line, "%") ||
		len(line) > minIngredientLineLength
}

// headerPhrasePattern strips leftover section labels and facility statements.
var headerPhrasePattern = regexp.MustCompile(
	`(?i)\b(?:ingredients|ingredientes|ingrédients|zutaten|ingredienti|` +
		`contains|allergens|allergy advice|` +
		`made in a facility[^.,;]*|may contain traces[^.,;]*)\b\s*:?`,
)

// noisePatterns are removed from cleaned text in this exact order. Later
// pipeline steps repair artifacts these removals leave behind (orphaned
// commas, doubled spaces).
var noisePatterns = []*regexp.Regexp{
	// Date/storage call-outs
	regexp.MustCompile(`(?i)\bbest before(?: end)?[^,.;]*`),
	regexp.MustCompile(`(?i)\buse by[^,.;]*`),
	regexp.MustCompile(`(?i)\bstore in[^,.;]*`),
	regexp.MustCompile(`(?i)\bkeep refrigerated[^,.;]*`),
	regexp.MustCompile(`(?i)\bonce opened[^,.;]*`),
	// Weight call-outs, with or without the estimated sign
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:kg|g|ml|l|litres?|oz)\s?℮?(?:\s|$)`),
	// URLs
	regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`),
	// Phone numbers (labelled or bare UK-format)
	regexp.MustCompile(`(?i)\b(?:tel|telephone|phone|call us)\.?:?\s*[\d\s()+-]{7,}`),
	regexp.MustCompile(`\b0\d{3}[\s-]?\d{3}[\s-]?\d{4}\b`),
	// Batch/lot codes
	regexp.MustCompile(`(?i)\b(?:batch|lot)\s*(?:no\.?|code|number)?\s*[:#]?\s*[a-z0-9-]+`),
	// UK-postcode-shaped tokens
	regexp.MustCompile(`(?i)\b[a-z]{1,2}\d{1,2}[a-z]?\s?\d[a-z]{2}\b`),
	// Street-address-shaped tokens
	regexp.MustCompile(`(?i)\b\d+[-/]?\d*\s+[a-z]+\s+(?:street|st|road|rd|avenue|ave|lane|ln|way|drive|dr)\b\.?`),
	// Company-suffix-led address tails
	regexp.MustCompile(`(?i)\b[a-z][a-z&'. ]*?\s(?:ltd|plc|gmbh|inc|llc)\b\.?[^,;]*`),
	// Email addresses
	regexp.MustCompile(`(?i)\b[\w.+-]+@[\w-]+\.[\w.]+\b`),
}

// Punctuation tidy-up patterns
var (
	multiSpacePattern    = regexp.MustCompile(`\s+`)
	spaceBeforeComma     = regexp.MustCompile(`\s+,`)
	repeatedCommaPattern = regexp.MustCompile(`,(?:\s*,)+`)
)

// Clean applies the fixed normalization pipeline to an extracted ingredients
// section. Steps run unconditionally and in order; each may undo artifacts
// left by the previous one.
func (t *TextNormalizer) Clean(text string) string {
	// Step 1: remove header/label phrases
	cleaned := headerPhrasePattern.ReplaceAllString(text, " ")

	// Step 2: truncate at the first nutrition-table keyword, provided enough
	// text precedes it to rule out a false positive
	cleaned = truncateAtNutritionKeyword(cleaned)

	// Step 3: remove noise patterns in order
	for _, pattern := range noisePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}

	// Step 4: normalize whitespace
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")

	// Step 5: punctuation tidy-up
	cleaned = spaceBeforeComma.ReplaceAllString(cleaned, ",")
	cleaned = repeatedCommaPattern.ReplaceAllString(cleaned, ",")

	// Step 6: trim leading/trailing punctuation and whitespace
	cleaned = strings.Trim(cleaned, " \t\n,.;:-")

	return cleaned
}

// truncateAtNutritionKeyword cuts at the earliest nutrition-table keyword
// when at least minTextBeforeNutritionCut characters precede it.
func truncateAtNutritionKeyword(text string) string {
	lowered := foldForScan(text)
	cut := -1
	for _, marker := range nutritionTableMarkers {
		if idx := strings.Index(lowered, marker); idx >= 0 && (cut == -1 || idx < cut) {
			cut = idx
		}
	}
	if cut >= minTextBeforeNutritionCut {
		return text[:cut]
	}
	return text
}

// IngredientsFromLabel runs extraction and cleaning end to end on raw
// recognized text, as supplied by the OCR collaborator.
func (t *TextNormalizer) IngredientsFromLabel(raw string) (string, error) {
	section := t.ExtractIngredientsSection(raw)
	cleaned := t.Clean(section)
	if strings.TrimSpace(cleaned) == "" {
		return "", domain.ErrNoIngredientsFound
	}
	return cleaned, nil
}
