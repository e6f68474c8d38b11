package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Category is the persisted identifier of a spending category.
type Category string

const (
	Groceries     Category = "GROCERIES"
	Restaurants   Category = "RESTAURANTS"
	Transport     Category = "TRANSPORT"
	Transfers     Category = "TRANSFERS"
	Communication Category = "COMMUNICATION"
	Entertainment Category = "ENTERTAINMENT"
	Health        Category = "HEALTH"
	Clothing      Category = "CLOTHING"
	Cashback      Category = "CASHBACK"
	Cash          Category = "CASH"
	Other         Category = "OTHER"
)

// ErrUnknownCategory is returned by ParseCategory when nothing resembles the input.
var ErrUnknownCategory = errors.New("unknown category")

var categories = []Category{
	Groceries,
	Restaurants,
	Transport,
	Transfers,
	Communication,
	Entertainment,
	Health,
	Clothing,
	Cashback,
	Cash,
	Other,
}

var labels = map[Category]string{
	Groceries:     "Продукты",
	Restaurants:   "Рестораны",
	Transport:     "Транспорт",
	Transfers:     "Переводы",
	Communication: "Связь",
	Entertainment: "Развлечения",
	Health:        "Здоровье",
	Clothing:      "Одежда",
	Cashback:      "Кэшбэк",
	Cash:          "Наличные",
	Other:         "Прочее",
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Label returns the Russian display label.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := labels[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves user input to a category. Exact keys and labels win;
// otherwise the closest fuzzy match over keys and labels is returned.
func ParseCategory(s string) (Category, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return "", fmt.Errorf("%w: empty input", ErrUnknownCategory)
	}

	for _, c := range categories {
		if strings.EqualFold(string(c), input) || strings.EqualFold(labels[c], input) {
			return c, nil
		}
	}

	best := Category("")
	bestRank := -1
	for _, c := range categories {
		for _, target := range []string{string(c), labels[c]} {
			rank := fuzzy.RankMatchNormalizedFold(input, target)
			if rank < 0 {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				best, bestRank = c, rank
			}
		}
	}
	if bestRank < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return best, nil
}
