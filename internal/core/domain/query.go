package domain

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Виды сделки в понимании пользователя. На стороне бэкенда buy соответствует
// объявлениям о продаже (deal_type = sell), rent - аренде.
const (
	TransactionBuy  = "buy"
	TransactionRent = "rent"
)

// Системные имена типов недвижимости, совпадают со словарем бэкенда.
const (
	PropertyApartment  = "apartment"
	PropertyHouse      = "house"
	PropertyCommercial = "commercial"
)

// SearchQuery - неизменяемый снимок критериев поиска на момент сабмита формы.
// Идентичность запроса для кэша задается его канонической сериализацией.
type SearchQuery struct {
	TransactionKind string
	PropertyTypes   []string
	Rooms           *int
	District        string
	BudgetMin       *float64
	BudgetMax       *float64
	FreeText        string
}

var foldCaser = cases.Fold()

// canonText нормализует текстовое поле для канонического ключа:
// NFC + case folding, чтобы "Минск" и " минск " давали один и тот же ключ.
func canonText(s string) string {
	return foldCaser.String(norm.NFC.String(strings.TrimSpace(s)))
}

// CanonicalKey возвращает детерминированную сериализацию запроса.
// Порядок типов недвижимости и регистр текста на ключ не влияют.
func (q SearchQuery) CanonicalKey() string {
	types := make([]string, len(q.PropertyTypes))
	copy(types, q.PropertyTypes)
	sort.Strings(types)

	var b strings.Builder
	b.WriteString("deal=")
	b.WriteString(q.TransactionKind)
	b.WriteString("|types=")
	b.WriteString(strings.Join(types, ","))
	if q.Rooms != nil {
		fmt.Fprintf(&b, "|rooms=%d", *q.Rooms)
	}
	if d := canonText(q.District); d != "" {
		b.WriteString("|district=")
		b.WriteString(d)
	}
	if q.BudgetMin != nil {
		fmt.Fprintf(&b, "|min=%g", *q.BudgetMin)
	}
	if q.BudgetMax != nil {
		fmt.Fprintf(&b, "|max=%g", *q.BudgetMax)
	}
	if t := canonText(q.FreeText); t != "" {
		b.WriteString("|text=")
		b.WriteString(t)
	}
	return b.String()
}

// PageCacheKey - составной ключ страницы выдачи: запрос + смещение.
// Две разные страницы или два разных фильтра никогда не коллидируют.
func PageCacheKey(q SearchQuery, offset int) string {
	return fmt.Sprintf("%s%s:off=%d", SearchKeyPrefix, q.CanonicalKey(), offset)
}

// Ключи и префиксы кешируемых ресурсов.
const (
	SearchKeyPrefix  = "search:"
	ListingKeyPrefix = "listing:"

	CacheKeyFavorites   = "favorites"
	CacheKeyMapListings = "maplist"
)

// ListingCacheKey - ключ кэша деталей одного объекта.
func ListingCacheKey(id string) string {
	return ListingKeyPrefix + id
}

// IsListShapedKey сообщает, относится ли ключ к списочным данным с пометками
// избранного. Именно такие ключи инвалидируются после закоммиченной мутации.
func IsListShapedKey(key string) bool {
	return strings.HasPrefix(key, SearchKeyPrefix) ||
		strings.HasPrefix(key, ListingKeyPrefix) ||
		key == CacheKeyFavorites ||
		key == CacheKeyMapListings
}
