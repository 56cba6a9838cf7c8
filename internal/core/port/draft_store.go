package port

// DraftStorePort - контракт хранилища черновиков форм. Черновики переживают
// рестарт движка, поэтому реализация обязана валидировать прочитанное:
// битый или чужой по схеме черновик превращается в промах, а не в ошибку.
type DraftStorePort interface {
	// Save сохраняет текстовые значения полей формы. Файлы в черновик
	// не попадают никогда.
	Save(userID, formID string, values map[string]string) error

	// Load возвращает сохраненные значения. Второй результат false -
	// черновика нет либо он не прошел проверку схемой.
	Load(userID, formID string) (map[string]string, bool)

	// Delete удаляет черновик формы.
	Delete(userID, formID string) error
}
