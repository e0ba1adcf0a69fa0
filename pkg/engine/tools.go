package engine

import (
	"encoding/json"

	"github.com/Batatao343/rpg-ia-master/internal/services"
)

// Tool names offered to the model during turn resolution.
const (
	ToolRollDice    = "roll_dice"
	ToolUpdateHP    = "update_hp"
	ToolTransaction = "transaction"
)

// Item is a purchasable or lootable object known to the catalog.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int    `json:"price"`
	Rarity      string `json:"rarity,omitempty"`
}

// ItemCatalog resolves item IDs for transactions. Implemented by the
// storage layer; a nil catalog disables buying and selling.
type ItemCatalog interface {
	Item(id string) (*Item, bool)
}

// ToolDefinitions returns the tool set offered on every resolution
// step. Schemas are strict: unknown or missing fields are rejected by
// the dispatcher, so the descriptions spell out the exact shape.
func ToolDefinitions() []services.ToolDefinition {
	return []services.ToolDefinition{
		{
			Name: ToolRollDice,
			Description: "Roll dice for any uncertain action. Accepts free-form formulas " +
				"such as '1d20+5', '2d6 fire', or 'DC 15 Dex save, 8d6'. " +
				"Always roll before applying damage.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"formula": {"type": "string", "description": "Dice formula or check description"}
				},
				"required": ["formula"]
			}`),
		},
		{
			Name: ToolUpdateHP,
			Description: "Apply damage (negative amount) or healing (positive amount) to a " +
				"named target. Target may be the player, a party member, or an enemy.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"target": {"type": "string", "description": "Name or ID of the target"},
					"amount": {"type": "integer", "description": "Signed HP change; negative is damage"}
				},
				"required": ["target", "amount"]
			}`),
		},
		{
			Name:        ToolTransaction,
			Description: "Buy or sell an item from the catalog on the player's behalf.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"action": {"type": "string", "enum": ["buy", "sell"]},
					"item_id": {"type": "string"}
				},
				"required": ["action", "item_id"]
			}`),
		},
	}
}
