package cdf_client

import (
	"github.com/cogdata/go-cdf-client/core"
	"github.com/cogdata/go-cdf-client/rest"
)

type (
	Config                          = core.Config
	ConfigFunc                      = core.ConfigFunc
	Params                          = core.Params
	Record                          = core.Record
	RecordSet                       = core.RecordSet
	Renderable                      = core.Renderable
	Identifier                      = core.Identifier
	IdentifierSequence              = core.IdentifierSequence
	CogniteClient                   = rest.CogniteRest
	CogniteResourceAPI              = core.CogniteResourceAPI
	InterceptableCogniteResourceAPI = core.InterceptableCogniteResourceAPI

	ApiError                   = core.ApiError
	NotFoundError              = core.NotFoundError
	CompoundError              = core.CompoundError
	UnsupportedApiVersionError = core.UnsupportedApiVersionError
)

// NewCogniteClient creates a client with every resource API wired to one session.
func NewCogniteClient(config *Config) (*CogniteClient, error) {
	return rest.NewCogniteRest(config)
}

// LoadConfig reads a YAML config file overlaid by CDF_* environment variables.
func LoadConfig(path string) (*Config, error) {
	return core.LoadConfigFile(path)
}

func ById(id int64) Identifier {
	return core.ById(id)
}

func ByExternalId(externalID string) Identifier {
	return core.ByExternalId(externalID)
}

func ClientVersion() string {
	return core.ClientVersion()
}

// Of groups identifiers for batch operations.
func Of(identifiers ...Identifier) *IdentifierSequence {
	return core.Of(identifiers...)
}
