package cart

import (
	"bytes"
	"encoding/json"

	"storefront-be/internal/apperror"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionAddItem            ActionType = "ADD_ITEM"
	ActionUpdateItemQuantity ActionType = "UPDATE_ITEM_QUANTITY"
	ActionRemoveItem         ActionType = "REMOVE_ITEM"
)

// Action is one cart edit. Which fields are required depends on Type.
type Action struct {
	Type      ActionType `json:"type"`
	VariantID string     `json:"variant_id,omitempty"`
	ItemID    string     `json:"item_id,omitempty"`
	Quantity  *int64     `json:"quantity,omitempty"`
}

// DecodeActions strictly decodes raw action payloads and validates each one.
// The first bad action fails the whole batch with its index.
func DecodeActions(raw []json.RawMessage) ([]Action, error) {
	actions := make([]Action, 0, len(raw))
	for i, r := range raw {
		dec := json.NewDecoder(bytes.NewReader(r))
		dec.DisallowUnknownFields()

		var a Action
		if err := dec.Decode(&a); err != nil {
			return nil, apperror.InvalidAction(i, "malformed action payload")
		}
		actions = append(actions, a)
	}
	if err := ValidateActions(actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func ValidateActions(actions []Action) error {
	for i, a := range actions {
		if err := a.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (a Action) validate(index int) error {
	switch a.Type {
	case ActionAddItem:
		if a.VariantID == "" {
			return apperror.InvalidAction(index, "variant_id is required")
		}
		if a.Quantity == nil || *a.Quantity <= 0 {
			return apperror.InvalidAction(index, "quantity must be positive")
		}
	case ActionUpdateItemQuantity:
		if err := validItemID(index, a.ItemID); err != nil {
			return err
		}
		if a.Quantity == nil {
			return apperror.InvalidAction(index, "quantity is required")
		}
	case ActionRemoveItem:
		if err := validItemID(index, a.ItemID); err != nil {
			return err
		}
	case "":
		return apperror.InvalidAction(index, "type is required")
	default:
		return apperror.InvalidAction(index, "unknown action type "+string(a.Type))
	}
	return nil
}

func validItemID(index int, id string) error {
	if id == "" {
		return apperror.InvalidAction(index, "item_id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperror.InvalidAction(index, "item_id is not a valid id")
	}
	return nil
}
