package domain

// Фиксированные имена форм. Они же - ключи черновиков в session store.
const (
	FormSearch  = "search_form"
	FormOffer   = "offer_form"
	FormViewing = "viewing_form"
)

// KnownForm проверяет, что идентификатор формы известен движку.
func KnownForm(formID string) bool {
	switch formID {
	case FormSearch, FormOffer, FormViewing:
		return true
	}
	return false
}

// Имена полей поисковой формы.
const (
	FieldTransactionKind = "transaction_kind"
	FieldPropertyTypes   = "property_types"
	FieldRooms           = "rooms"
	FieldDistrict        = "district"
	FieldBudgetMin       = "budget_min"
	FieldBudgetMax       = "budget_max"
	FieldFreeText        = "free_text"
)

// Имена полей формы подачи объявления (поверх общих transaction_kind/rooms).
const (
	FieldPropertyType = "property_type"
	FieldAddress      = "address"
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldArea         = "area"
	FieldFloors       = "floors"
	FieldPrice        = "price"
	FieldDescription  = "description"
)

// Имена полей формы записи на просмотр.
const (
	FieldListingID   = "listing_id"
	FieldRequestedAt = "requested_at"
	FieldNotes       = "notes"
)

// FormState - текущие значения полей формы и карта ошибок валидации.
// Значения хранятся строками, как их прислал UI; разбор в типизированный
// запрос происходит только на сабмите.
type FormState struct {
	Values map[string]string
	Errors map[string]string
}

// NewFormState возвращает пустую форму.
func NewFormState() FormState {
	return FormState{
		Values: make(map[string]string),
		Errors: make(map[string]string),
	}
}

// Clone возвращает независимую копию состояния формы.
func (f FormState) Clone() FormState {
	c := NewFormState()
	for k, v := range f.Values {
		c.Values[k] = v
	}
	for k, v := range f.Errors {
		c.Errors[k] = v
	}
	return c
}
