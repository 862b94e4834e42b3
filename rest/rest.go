package rest

import (
	"context"
	"fmt"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/cogdata/go-cdf-client/resources"
)

// CogniteRest wires a session to every resource client of the platform.
type CogniteRest struct {
	ctx         context.Context
	Session     core.RESTSession
	resourceMap map[string]core.InterceptableCogniteResourceAPI // resources by resourceType

	Assets    *resources.AssetsAPI
	Events    *resources.EventsAPI
	Sequences *resources.SequencesAPI
	Types     *resources.TypesAPI
	Files     *resources.FilesAPI
}

// NewCogniteRest validates config with the default validators, opens a session and builds every resource client.
func NewCogniteRest(config *core.Config) (*CogniteRest, error) {
	if config == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if err := config.Validate(core.DefaultValidators()...); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	session, err := core.NewCogniteSession(config)
	if err != nil {
		return nil, err
	}
	rest := &CogniteRest{
		Session:     session,
		resourceMap: make(map[string]core.InterceptableCogniteResourceAPI),
	}

	// Set context: use provided context or default to background context
	if config.Context != nil {
		rest.SetCtx(config.Context)
	} else {
		rest.SetCtx(context.Background())
	}

	rest.Assets = resources.NewAssetsAPI(rest)
	rest.Events = resources.NewEventsAPI(rest)
	rest.Sequences = resources.NewSequencesAPI(rest)
	rest.Types = resources.NewTypesAPI(rest)
	rest.Files = resources.NewFilesAPI(rest)

	config.Logger.Debug("client ready")
	return rest, nil
}

func (rest *CogniteRest) GetSession() core.RESTSession {
	return rest.Session
}

func (rest *CogniteRest) GetResourceMap() map[string]core.InterceptableCogniteResourceAPI {
	return rest.resourceMap
}

func (rest *CogniteRest) GetCtx() context.Context {
	return rest.ctx
}

func (rest *CogniteRest) SetCtx(ctx context.Context) {
	rest.ctx = ctx
}

// Resource returns the registered resource of the given type, e.g. resources.SequenceResourceType.
func (rest *CogniteRest) Resource(resourceType string) (core.InterceptableCogniteResourceAPI, bool) {
	r, ok := rest.resourceMap[resourceType]
	return r, ok
}
