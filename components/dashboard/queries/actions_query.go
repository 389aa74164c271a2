package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// ActionsInput narrows the action listing to one category.
type ActionsInput struct {
	Category string `json:"category,omitempty"`
}

type actionsService interface {
	Actions(ctx context.Context) []dashboard.ActionDefinition
}

// ActionsQuery lists the registered client actions.
type ActionsQuery struct {
	service actionsService
}

// NewActionsQuery builds the query.
func NewActionsQuery(service actionsService) *ActionsQuery {
	return &ActionsQuery{service: service}
}

var _ gocommand.Querier[ActionsInput, []dashboard.ActionDefinition] = (*ActionsQuery)(nil)

// Query returns actions sorted by key.
func (q *ActionsQuery) Query(ctx context.Context, input ActionsInput) ([]dashboard.ActionDefinition, error) {
	actions := q.service.Actions(ctx)
	if input.Category == "" {
		return actions, nil
	}
	out := make([]dashboard.ActionDefinition, 0, len(actions))
	for _, def := range actions {
		if def.Category == input.Category {
			out = append(out, def)
		}
	}
	return out, nil
}
