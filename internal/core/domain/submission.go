package domain

import (
	"time"

	"github.com/google/uuid"
)

// OfferSubmission - полностью собранная заявка "предложить недвижимость",
// готовая к отправке на бэкенд одним multipart-запросом.
type OfferSubmission struct {
	TransactionKind string
	PropertyType    string
	Address         string
	Name            string
	Phone           string
	Area            *float64
	Floors          string
	Rooms           *int
	Price           *float64
	Description     string
	Photos          []UploadAsset
	Video           *UploadAsset
}

// ViewingRequest - заявка на просмотр конкретного объекта.
type ViewingRequest struct {
	ListingID   uuid.UUID
	RequestedAt time.Time
	Name        string
	Phone       string
	Notes       string
}
