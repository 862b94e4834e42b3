package core

// HTTP-related constants for REST operations

// HTTP Header Names
const (
	HeaderAccept            = "Accept"
	HeaderAuthorization     = "Authorization"
	HeaderContentType       = "Content-Type"
	HeaderContentEncoding   = "Content-Encoding"
	HeaderUserAgent         = "User-Agent"
	HeaderApiKey            = "api-key"
	HeaderRequestID         = "x-request-id"
	HeaderSdk               = "x-cdp-sdk"
	HeaderApp               = "x-cdp-app"
	HeaderUploadContentType = "X-Upload-Content-Type"
)

// HTTP Content Types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
	ContentEncodingGzip    = "gzip"
)

// HTTP Authentication Types
const (
	AuthTypeBearer = "Bearer"
)

// Request limits imposed by the platform.
const (
	DefaultLimit      = 25   // items returned by list/search when no limit is given
	Unlimited         = -1   // pass as limit to fetch every item
	MaxPageSize       = 1000 // maximum items per list page
	CreateChunkSize   = 1000
	RetrieveChunkSize = 1000
	UpdateChunkSize   = 1000
	DeleteChunkSize   = 1000
)
