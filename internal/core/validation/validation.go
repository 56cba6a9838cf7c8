// Пакет validation - чистые правила валидации форм мини-приложения.
// Правила адресуются по (форма, поле) и видят значения соседних полей,
// поэтому UI может перевалидировать одно поле на blur, не трогая остальные.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

// ruleFunc возвращает текст ошибки или пустую строку, если поле валидно.
type ruleFunc func(value string, siblings map[string]string) string

// Реестр правил: форма -> поле -> правило. Поля без правил всегда валидны.
var rules = map[string]map[string]ruleFunc{
	domain.FormSearch: {
		domain.FieldTransactionKind: transactionKindRule,
		domain.FieldPropertyTypes:   propertyTypesRule,
		domain.FieldRooms:           roomsEnumRule,
		domain.FieldName:            requiredRule("Введите имя"),
		domain.FieldPhone:           phoneRule,
		domain.FieldBudgetMin:       budgetMinRule,
		domain.FieldBudgetMax:       budgetMaxRule,
	},
	domain.FormOffer: {
		domain.FieldTransactionKind: transactionKindRule,
		domain.FieldPropertyType:    propertyTypeRule,
		domain.FieldAddress:         requiredRule("Укажите адрес"),
		domain.FieldName:            requiredRule("Введите имя"),
		domain.FieldPhone:           phoneRule,
		domain.FieldArea:            optionalPositiveNumberRule("Введите корректную площадь"),
		domain.FieldRooms:           roomsEnumRule,
		domain.FieldPrice:           optionalNonNegativeNumberRule("Введите корректную цену"),
	},
	domain.FormViewing: {
		domain.FieldListingID:   listingIDRule,
		domain.FieldRequestedAt: requestedAtRule,
		domain.FieldName:        requiredRule("Введите имя"),
		domain.FieldPhone:       phoneRule,
	},
}

// ValidateField проверяет одно поле формы с учетом значений соседей.
// Пустая строка в ответе означает отсутствие ошибки.
func ValidateField(formID, field, value string, siblings map[string]string) string {
	formRules, ok := rules[formID]
	if !ok {
		return ""
	}
	rule, ok := formRules[field]
	if !ok {
		return ""
	}
	return rule(value, siblings)
}

// ValidateAll прогоняет все правила формы и возвращает карту ошибок,
// содержащую только провалившиеся поля. Пустая карта - форма валидна.
func ValidateAll(formID string, values map[string]string) map[string]string {
	result := make(map[string]string)
	formRules, ok := rules[formID]
	if !ok {
		return result
	}
	for field, rule := range formRules {
		if msg := rule(values[field], values); msg != "" {
			result[field] = msg
		}
	}
	return result
}

// --- правила ---

func requiredRule(message string) ruleFunc {
	return func(value string, _ map[string]string) string {
		if strings.TrimSpace(value) == "" {
			return message
		}
		return ""
	}
}

func transactionKindRule(value string, _ map[string]string) string {
	switch value {
	case domain.TransactionBuy, domain.TransactionRent:
		return ""
	case "":
		return "Укажите тип сделки"
	}
	return "Недопустимый тип сделки"
}

func knownPropertyType(v string) bool {
	switch v {
	case domain.PropertyApartment, domain.PropertyHouse, domain.PropertyCommercial:
		return true
	}
	return false
}

// propertyTypesRule - мультивыбор, значения через запятую.
func propertyTypesRule(value string, _ map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return "Выберите хотя бы один тип недвижимости"
	}
	for _, part := range strings.Split(value, ",") {
		if !knownPropertyType(strings.TrimSpace(part)) {
			return "Недопустимый тип недвижимости"
		}
	}
	return ""
}

func propertyTypeRule(value string, _ map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return "Укажите тип недвижимости"
	}
	if !knownPropertyType(strings.TrimSpace(value)) {
		return "Недопустимый тип недвижимости"
	}
	return ""
}

func roomsEnumRule(value string, _ map[string]string) string {
	if value == "" {
		return ""
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 5 {
		return "Недопустимое количество комнат"
	}
	return ""
}

var (
	phoneStripRe   = regexp.MustCompile(`[\s\-()]+`)
	phonePatternRe = regexp.MustCompile(`^\+?\d{10,15}$`)
)

// NormalizePhone убирает пробелы, дефисы и скобки - именно в таком виде
// номер уходит на бэкенд.
func NormalizePhone(value string) string {
	return phoneStripRe.ReplaceAllString(value, "")
}

func phoneRule(value string, _ map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return "Введите номер телефона"
	}
	if !phonePatternRe.MatchString(NormalizePhone(value)) {
		return "Введите корректный номер телефона"
	}
	return ""
}

func parseAmount(value string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return n, err == nil
}

func optionalNonNegativeNumberRule(message string) ruleFunc {
	return func(value string, _ map[string]string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		if n, ok := parseAmount(value); !ok || n < 0 {
			return message
		}
		return ""
	}
}

func optionalPositiveNumberRule(message string) ruleFunc {
	return func(value string, _ map[string]string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		if n, ok := parseAmount(value); !ok || n <= 0 {
			return message
		}
		return ""
	}
}

func budgetMinRule(value string, _ map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if n, ok := parseAmount(value); !ok || n < 0 {
		return "Введите корректную сумму"
	}
	return ""
}

// budgetMaxRule - единственное кросс-полевое правило: при заполненных обеих
// границах максимум должен быть строго больше минимума. Ошибка вешается
// на budget_max.
func budgetMaxRule(value string, siblings map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	max, ok := parseAmount(value)
	if !ok || max < 0 {
		return "Введите корректную сумму"
	}
	minRaw := strings.TrimSpace(siblings[domain.FieldBudgetMin])
	if minRaw == "" {
		return ""
	}
	min, ok := parseAmount(minRaw)
	if !ok {
		return ""
	}
	if max <= min {
		return "Максимальный бюджет должен быть больше минимального"
	}
	return ""
}

func listingIDRule(value string, _ map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return "Укажите объект"
	}
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return "Некорректный идентификатор объекта"
	}
	return ""
}

func requestedAtRule(value string, _ map[string]string) string {
	if strings.TrimSpace(value) == "" {
		return "Укажите время просмотра"
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return "Некорректная дата просмотра"
	}
	if !at.After(time.Now()) {
		return "Время просмотра должно быть в будущем"
	}
	return ""
}
