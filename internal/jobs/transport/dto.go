package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Jobs

type AddressRequest struct {
	Line1    string `json:"line1" validate:"required,max=200"`
	Line2    string `json:"line2,omitempty" validate:"max=200"`
	City     string `json:"city" validate:"required,max=100"`
	County   string `json:"county,omitempty" validate:"max=100"`
	Postcode string `json:"postcode" validate:"required,max=20"`
	Country  string `json:"country,omitempty" validate:"max=100"`
}

type ContactRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone,omitempty" validate:"max=40"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

type CreateJobRequest struct {
	ClientID       uuid.UUID       `json:"clientId" validate:"required"`
	CollectionDate *time.Time      `json:"collectionDate,omitempty"`
	CollectionType string          `json:"collectionType,omitempty" validate:"max=100"`
	Address        *AddressRequest `json:"address,omitempty" validate:"omitempty"`
	OnsiteContact  *ContactRequest `json:"onsiteContact,omitempty" validate:"omitempty"`
	Notes          string          `json:"notes,omitempty" validate:"max=4000"`
}

type UpdateJobRequest struct {
	CollectionDate *time.Time      `json:"collectionDate,omitempty"`
	CollectionType *string         `json:"collectionType,omitempty" validate:"omitempty,min=1,max=100"`
	Address        *AddressRequest `json:"address,omitempty" validate:"omitempty"`
	OnsiteContact  *ContactRequest `json:"onsiteContact,omitempty" validate:"omitempty"`
	Notes          *string         `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

type ListJobsRequest struct {
	Status   string `form:"status" validate:"max=40"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ProvideQuoteRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Information string          `json:"information,omitempty" validate:"max=4000"`
}

type ScheduleRequest struct {
	CollectionDate *time.Time `json:"collectionDate,omitempty"`
}

type ReasonRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

type MarkCollectedRequest struct {
	CustomerSignature string `json:"customerSignature" validate:"required"`
	CustomerName      string `json:"customerName" validate:"required,max=200"`
	DriverSignature   string `json:"driverSignature" validate:"required"`
	DriverName        string `json:"driverName" validate:"required,max=200"`
}

type MarkReceivedRequest struct {
	StaffSignature string    `json:"staffSignature" validate:"required"`
	StaffName      string    `json:"staffName" validate:"required,max=200"`
	ReceivedDate   time.Time `json:"receivedDate" validate:"required"`
}

type ItemsVersionRequest struct {
	ItemsVersion *int64 `json:"itemsVersion,omitempty" validate:"omitempty,min=0"`
}

type SignatureResponse struct {
	Name        string    `json:"name"`
	DocumentKey string    `json:"documentKey"`
	SignedAt    time.Time `json:"signedAt"`
}

type AddressResponse struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
	Country  string `json:"country,omitempty"`
}

type ContactResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type JobResponse struct {
	ID                uuid.UUID          `json:"id"`
	JobID             string             `json:"jobId"`
	ClientID          uuid.UUID          `json:"clientId"`
	Status            string             `json:"status"`
	AllowedNext       []string           `json:"allowedNext"`
	Editable          bool               `json:"editable"`
	CollectionDate    *time.Time         `json:"collectionDate,omitempty"`
	CollectionType    string             `json:"collectionType"`
	Address           AddressResponse    `json:"address"`
	OnsiteContact     ContactResponse    `json:"onsiteContact"`
	JobQuote          *decimal.Decimal   `json:"jobQuote,omitempty"`
	QuoteInformation  string             `json:"quoteInformation,omitempty"`
	CustomerSignature *SignatureResponse `json:"customerSignature,omitempty"`
	DriverSignature   *SignatureResponse `json:"driverSignature,omitempty"`
	StaffSignature    *SignatureResponse `json:"staffSignature,omitempty"`
	ReceivedDate      *time.Time         `json:"receivedDate,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	ItemsVersion      int64              `json:"itemsVersion"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type JobListResponse struct {
	Items      []JobResponse `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// Items

type ItemRequest struct {
	// ID is unset for rows that have not been saved yet.
	ID                        *uuid.UUID        `json:"id,omitempty"`
	ItemNumber                string            `json:"itemNumber,omitempty" validate:"max=40"`
	OriginalItemNumber        *string           `json:"originalItemNumber,omitempty" validate:"omitempty,max=40"`
	Quantity                  int               `json:"quantity" validate:"min=0,max=10000"`
	CategoryID                *int64            `json:"categoryId,omitempty"`
	SubCategoryID             *int64            `json:"subCategoryId,omitempty"`
	Make                      string            `json:"make,omitempty" validate:"max=200"`
	Model                     string            `json:"model,omitempty" validate:"max=200"`
	Specification             string            `json:"specification,omitempty" validate:"max=2000"`
	ErasureRequired           bool              `json:"erasureRequired"`
	ProcessingMake            string            `json:"processingMake,omitempty" validate:"max=200"`
	ProcessingModel           string            `json:"processingModel,omitempty" validate:"max=200"`
	ProcessingSpecification   map[string]string `json:"processingSpecification,omitempty" validate:"max=50"`
	ProcessingErasureRequired bool              `json:"processingErasureRequired"`
	ProcessingDataStatus      string            `json:"processingDataStatus,omitempty" validate:"max=100"`
	SerialNumber              string            `json:"serialNumber,omitempty" validate:"max=200"`
	AssetTag                  string            `json:"assetTag,omitempty" validate:"max=200"`
}

type BulkSaveItemsRequest struct {
	Phase        string        `json:"phase" validate:"required,oneof=collection processing Collection Processing"`
	Items        []ItemRequest `json:"items" validate:"max=1000,dive"`
	ItemsVersion *int64        `json:"itemsVersion,omitempty" validate:"omitempty,min=0"`
}

type ExpandItemRequest struct {
	ItemNumber string   `json:"itemNumber" validate:"required,max=40"`
	Reserved   []string `json:"reserved,omitempty" validate:"max=1000"`
}

type ItemResponse struct {
	ID                        *uuid.UUID        `json:"id,omitempty"`
	ItemNumber                string            `json:"itemNumber"`
	OriginalItemNumber        *string           `json:"originalItemNumber,omitempty"`
	Quantity                  int               `json:"quantity"`
	CategoryID                *int64            `json:"categoryId,omitempty"`
	SubCategoryID             *int64            `json:"subCategoryId,omitempty"`
	Make                      string            `json:"make,omitempty"`
	Model                     string            `json:"model,omitempty"`
	Specification             string            `json:"specification,omitempty"`
	ErasureRequired           bool              `json:"erasureRequired"`
	ProcessingMake            string            `json:"processingMake,omitempty"`
	ProcessingModel           string            `json:"processingModel,omitempty"`
	ProcessingSpecification   map[string]string `json:"processingSpecification,omitempty"`
	ProcessingErasureRequired bool              `json:"processingErasureRequired"`
	ProcessingDataStatus      string            `json:"processingDataStatus,omitempty"`
	SerialNumber              string            `json:"serialNumber,omitempty"`
	AssetTag                  string            `json:"assetTag,omitempty"`
	Added                     string            `json:"added,omitempty"`
}

type ItemListResponse struct {
	Items             []ItemResponse `json:"items"`
	HistoricalNumbers []string       `json:"historicalNumbers"`
	ItemsVersion      int64          `json:"itemsVersion"`
}

type BulkSaveItemsResponse struct {
	Items        []ItemResponse `json:"items"`
	ItemsVersion int64          `json:"itemsVersion"`
	Inserted     int            `json:"inserted"`
	Updated      int            `json:"updated"`
	Deleted      int            `json:"deleted"`
}

type NextItemNumberResponse struct {
	ItemNumber string `json:"itemNumber"`
}

// Audit

type NoteRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type AuditResponse struct {
	ID        uuid.UUID  `json:"id"`
	StaffID   *uuid.UUID `json:"staffId,omitempty"`
	Content   string     `json:"content"`
	IsSystem  bool       `json:"isSystem"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
