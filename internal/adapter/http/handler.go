package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/proviq/internal/app"
	"github.com/neomorfeo/proviq/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// SubscriptionResponse is the API representation of a subscription.
type SubscriptionResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	ClientID    string `json:"client_id" doc:"Owning client"`
	ProductName string `json:"product_name" doc:"Purchased product"`
	Status      string `json:"status" doc:"Lifecycle state"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt   string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toSubscriptionResponse(sub domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          sub.ID,
		ClientID:    sub.ClientID,
		ProductName: sub.ProductName,
		Status:      string(sub.Status),
		CreatedAt:   sub.CreatedAt.Format(timeFormat),
		UpdatedAt:   sub.UpdatedAt.Format(timeFormat),
	}
}

// DefinitionResponse is the API representation of a catalog entry.
type DefinitionResponse struct {
	ID                   string         `json:"id" doc:"Unique identifier"`
	ComponentKey         string         `json:"component_key" doc:"Catalog key"`
	Name                 string         `json:"name" doc:"Display name"`
	ProvisioningRequired bool           `json:"provisioning_required" doc:"Whether lifecycle events provision this component"`
	Metadata             map[string]any `json:"metadata,omitempty" doc:"Definition metadata, including provider overrides"`
	CreatedAt            string         `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toDefinitionResponse(def domain.ComponentDefinition) DefinitionResponse {
	return DefinitionResponse{
		ID:                   def.ID,
		ComponentKey:         def.ComponentKey,
		Name:                 def.Name,
		ProvisioningRequired: def.ProvisioningRequired,
		Metadata:             def.Metadata,
		CreatedAt:            def.CreatedAt.Format(timeFormat),
	}
}

// ComponentResponse is the API representation of a subscribed component,
// metadata included. Provisioning outcomes are read from here.
type ComponentResponse struct {
	ID             string         `json:"id" doc:"Unique identifier"`
	SubscriptionID string         `json:"subscription_id" doc:"Owning subscription"`
	ComponentKey   string         `json:"component_key" doc:"Catalog key of the definition"`
	Name           string         `json:"name" doc:"Definition display name"`
	Config         map[string]any `json:"config,omitempty" doc:"Per-instance configuration"`
	Metadata       map[string]any `json:"metadata" doc:"Accumulated provisioning state"`
	IsActive       bool           `json:"is_active" doc:"False once terminated"`
	CreatedAt      string         `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt      string         `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toComponentResponse(c domain.SubscribedComponent) ComponentResponse {
	return ComponentResponse{
		ID:             c.ID,
		SubscriptionID: c.SubscriptionID,
		ComponentKey:   c.Definition.ComponentKey,
		Name:           c.Definition.Name,
		Config:         c.Config,
		Metadata:       c.Metadata,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt.Format(timeFormat),
		UpdatedAt:      c.UpdatedAt.Format(timeFormat),
	}
}

// --- Register Definition ---

type CreateDefinitionInput struct {
	Body struct {
		ComponentKey         string         `json:"component_key" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:_[a-z0-9]+)*$" doc:"Catalog key (lowercase, underscores)"`
		Name                 string         `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		ProvisioningRequired bool           `json:"provisioning_required,omitempty" default:"true" doc:"Whether lifecycle events provision this component"`
		Metadata             map[string]any `json:"metadata,omitempty" doc:"Definition metadata; provisioningProvider overrides the provider key"`
	}
}

type CreateDefinitionOutput struct {
	Body DefinitionResponse
}

// --- List Definitions ---

type ListDefinitionsOutput struct {
	Body []DefinitionResponse
}

// --- Create Subscription ---

type ComponentSelectionInput struct {
	ComponentKey string         `json:"component_key" minLength:"1" maxLength:"100" doc:"Catalog key"`
	Config       map[string]any `json:"config,omitempty" doc:"Per-instance configuration"`
}

type CreateSubscriptionInput struct {
	Body struct {
		ClientID    string                    `json:"client_id" minLength:"1" maxLength:"100" doc:"Owning client"`
		ProductName string                    `json:"product_name" minLength:"1" maxLength:"255" doc:"Purchased product"`
		Components  []ComponentSelectionInput `json:"components,omitempty" doc:"Components to instantiate under the subscription"`
	}
}

type CreateSubscriptionOutput struct {
	Body SubscriptionResponse
}

// --- Get Subscription ---

type GetSubscriptionInput struct {
	ID string `path:"id" doc:"Subscription ID"`
}

type GetSubscriptionOutput struct {
	Body SubscriptionResponse
}

// --- List Subscriptions ---

type ListSubscriptionsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListSubscriptionsOutput struct {
	Body []SubscriptionResponse
}

// --- List Components ---

type ListComponentsInput struct {
	ID string `path:"id" doc:"Subscription ID"`
}

type ListComponentsOutput struct {
	Body []ComponentResponse
}

// --- Transition ---

type TransitionInput struct {
	ID   string `path:"id" doc:"Subscription ID"`
	Body struct {
		Event string `json:"event" doc:"Lifecycle event to trigger" enum:"subscription.activated,subscription.suspended,subscription.unsuspended,subscription.terminated"`
	}
}

type TransitionOutput struct {
	Body SubscriptionResponse
}

// --- Providers ---

type ListProvidersOutput struct {
	Body struct {
		Providers []string `json:"providers" doc:"Registered provider keys, sorted"`
	}
}

// Register adds all subscription API routes to the Huma API.
func Register(api huma.API, svc *app.SubscriptionService, registry *app.HandlerRegistry) {
	huma.Register(api, huma.Operation{
		OperationID: "create-definition",
		Method:      http.MethodPost,
		Path:        "/api/v1/definitions",
		Summary:     "Register a component definition",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CreateDefinitionInput) (*CreateDefinitionOutput, error) {
		def, err := svc.RegisterDefinition(ctx, input.Body.ComponentKey, input.Body.Name, input.Body.ProvisioningRequired, input.Body.Metadata)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateDefinitionOutput{Body: toDefinitionResponse(def)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-definitions",
		Method:      http.MethodGet,
		Path:        "/api/v1/definitions",
		Summary:     "List the component catalog",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListDefinitionsOutput, error) {
		defs, err := svc.Definitions(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]DefinitionResponse, len(defs))
		for i, def := range defs {
			resp[i] = toDefinitionResponse(def)
		}
		return &ListDefinitionsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-subscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/subscriptions",
		Summary:     "Create a new subscription",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *CreateSubscriptionInput) (*CreateSubscriptionOutput, error) {
		selections := make([]app.ComponentSelection, len(input.Body.Components))
		for i, c := range input.Body.Components {
			selections[i] = app.ComponentSelection{ComponentKey: c.ComponentKey, Config: c.Config}
		}

		sub, err := svc.Create(ctx, input.Body.ClientID, input.Body.ProductName, selections)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateSubscriptionOutput{Body: toSubscriptionResponse(sub)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-subscription",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscriptions/{id}",
		Summary:     "Get a subscription by ID",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *GetSubscriptionInput) (*GetSubscriptionOutput, error) {
		sub, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetSubscriptionOutput{Body: toSubscriptionResponse(sub)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-subscriptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscriptions",
		Summary:     "List subscriptions",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *ListSubscriptionsInput) (*ListSubscriptionsOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s := domain.SubscriptionStatus(input.Status)
			filter.Status = &s
		}

		subs, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]SubscriptionResponse, len(subs))
		for i, sub := range subs {
			resp[i] = toSubscriptionResponse(sub)
		}
		return &ListSubscriptionsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-subscription-components",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscriptions/{id}/components",
		Summary:     "List a subscription's components with provisioning state",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *ListComponentsInput) (*ListComponentsOutput, error) {
		components, err := svc.Components(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ComponentResponse, len(components))
		for i, c := range components {
			resp[i] = toComponentResponse(c)
		}
		return &ListComponentsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-subscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/subscriptions/{id}/events",
		Summary:     "Trigger a lifecycle event",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *TransitionInput) (*TransitionOutput, error) {
		sub, err := svc.Transition(ctx, input.ID, domain.LifecycleEvent(input.Body.Event))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionOutput{Body: toSubscriptionResponse(sub)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "List registered provider handlers",
		Tags:        []string{"Providers"},
	}, func(_ context.Context, _ *struct{}) (*ListProvidersOutput, error) {
		out := &ListProvidersOutput{}
		out.Body.Providers = registry.Keys()
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return huma.Error404NotFound("subscription not found")
	}
	if errors.Is(err, domain.ErrComponentNotFound) {
		return huma.Error404NotFound("component not found")
	}

	// A selection naming a missing catalog entry is a bad request body, not
	// a missing resource.
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var keyErr *domain.ComponentKeyConflictError
	if errors.As(err, &keyErr) {
		return huma.Error409Conflict(keyErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
