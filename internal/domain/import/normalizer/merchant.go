// Package normalizer turns raw statement descriptions into merchant names
// suitable for grouping in reports.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MerchantInfo is the normalized form of a description.
type MerchantInfo struct {
	OriginalName   string `json:"original_name"`
	NormalizedName string `json:"normalized_name"`
	Known          bool   `json:"known"`
}

// MerchantPattern maps a recognizable merchant to its display name.
type MerchantPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// MerchantSanitizer strips payment boilerplate from descriptions and
// resolves well-known merchants to a single display name.
type MerchantSanitizer struct {
	patterns []MerchantPattern
}

// NewMerchantSanitizer creates a sanitizer with the built-in merchant list.
func NewMerchantSanitizer() *MerchantSanitizer {
	return &MerchantSanitizer{
		patterns: defaultMerchantPatterns(),
	}
}

// Sanitize normalizes a description.
func (s *MerchantSanitizer) Sanitize(description string) MerchantInfo {
	result := MerchantInfo{
		OriginalName:   description,
		NormalizedName: description,
	}

	cleaned := cleanMerchantName(description)
	for _, p := range s.patterns {
		if p.Pattern.MatchString(cleaned) {
			result.NormalizedName = p.Name
			result.Known = true
			return result
		}
	}

	if cleaned == "" {
		return result
	}
	result.NormalizedName = titleCase(cleaned)
	return result
}

// AddPattern registers a merchant ahead of the built-in list.
func (s *MerchantSanitizer) AddPattern(pattern, name string) error {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return err
	}
	s.patterns = append([]MerchantPattern{{Pattern: re, Name: name}}, s.patterns...)
	return nil
}

var (
	// longest first so "Оплата в" wins over "Оплата"
	descriptionPrefixes = []string{
		"Оплата товаров и услуг ",
		"Оплата услуг ",
		"Оплата в ",
		"Оплата ",
		"Покупка в ",
		"Покупка ",
		"Операция по карте ",
		"Списание ",
		"PURCHASE ",
		"POS ",
	}

	spacePattern   = regexp.MustCompile(`\s+`)
	cardMask       = regexp.MustCompile(`\*+\d{4}`)
	trailingNoise  = regexp.MustCompile(`(?i)[\s,]+(?:RUS|RU|RUSSIA|SANKT-PETERBU\S*|SAINT\s+PETERSBURG|MOSCOW|MOSKVA|G\.?\s*MOSKVA)$`)
	trailingNumber = regexp.MustCompile(`[\s\-#]+\d{2,}$`)
)

// cleanMerchantName removes the payment prefix, card masks, trailing
// country and city tokens and store numbers.
func cleanMerchantName(raw string) string {
	result := strings.TrimSpace(spacePattern.ReplaceAllString(raw, " "))

	for _, prefix := range descriptionPrefixes {
		if len(result) > len(prefix) && strings.EqualFold(result[:len(prefix)], prefix) {
			result = result[len(prefix):]
			break
		}
	}

	result = cardMask.ReplaceAllString(result, "")
	for {
		next := trailingNoise.ReplaceAllString(result, "")
		next = trailingNumber.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == result {
			break
		}
		result = next
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(result, " "))
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

func defaultMerchantPatterns() []MerchantPattern {
	list := []struct{ expr, name string }{
		// Supermarkets
		{`PYATEROCHKA|ПЯТ[ЕЁ]РОЧКА`, "Пятёрочка"},
		{`PEREKR[EY]O?STOK|ПЕРЕКР[ЕЁ]СТОК`, "Перекрёсток"},
		{`LENTA|ЛЕНТА`, "Лента"},
		{`MAGNIT|МАГНИТ`, "Магнит"},
		{`DIXY|ДИКСИ`, "Дикси"},
		{`VKUSVILL|ВКУСВИЛЛ`, "ВкусВилл"},
		{`AUCHAN|АШАН`, "Ашан"},
		{`METRO\s*C|МЕТРО\s*К`, "METRO Cash & Carry"},
		{`SAMOKAT|САМОКАТ`, "Самокат"},
		{`YANDEX\.?LAVKA|ЯНДЕКС\.?ЛАВКА`, "Яндекс Лавка"},

		// Restaurants
		{`TOKYO\s*CITY|ТОКИО\s*СИТИ`, "Токио-Сити"},
		{`VKUSNOITOCHKA|ВКУСНО\s*И\s*ТОЧКА`, "Вкусно и точка"},
		{`ROSTIC|РОСТИК`, "Rostic's"},
		{`BURGER\s*KING|БУРГЕР\s*КИНГ`, "Burger King"},
		{`STARBUCKS|СТАРБАКС`, "Starbucks"},
		{`YANDEX\.?EDA|ЯНДЕКС\.?ЕДА`, "Яндекс Еда"},

		// Transport
		{`YANDEX\.?TAXI|ЯНДЕКС\.?ТАКСИ|YANDEX\s*GO`, "Яндекс Такси"},
		{`MOSMETRO|МОСМЕТРО`, "Московский метрополитен"},
		{`RZD|РЖД`, "РЖД"},
		{`AEROFLOT|АЭРОФЛОТ`, "Аэрофлот"},

		// Telecom
		{`BEELINE|БИЛАЙН`, "Билайн"},
		{`MEGAFON|МЕГАФОН`, "МегаФон"},
		{`\bMTS\b|^МТС$|^МТС\s`, "МТС"},
		{`TELE2|ТЕЛЕ2`, "Tele2"},

		// Marketplaces and subscriptions
		{`OZON|ОЗОН`, "Ozon"},
		{`WILDBERRIES|ВАЙЛДБЕРРИЗ`, "Wildberries"},
		{`KINOPOISK|КИНОПОИСК`, "Кинопоиск"},
		{`YANDEX\.?PLUS|ЯНДЕКС\.?ПЛЮС`, "Яндекс Плюс"},
	}

	patterns := make([]MerchantPattern, 0, len(list))
	for _, m := range list {
		patterns = append(patterns, MerchantPattern{
			Pattern: regexp.MustCompile(`(?i)` + m.expr),
			Name:    m.name,
		})
	}
	return patterns
}
