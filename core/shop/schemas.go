package shop

// schema ids for the request payloads
const (
	schemaUserCreate    = "https://shopapi.commercekit.com/schemas/user-create.json"
	schemaUserUpdate    = "https://shopapi.commercekit.com/schemas/user-update.json"
	schemaProductCreate = "https://shopapi.commercekit.com/schemas/product-create.json"
	schemaProductUpdate = "https://shopapi.commercekit.com/schemas/product-update.json"
	schemaOrderCreate   = "https://shopapi.commercekit.com/schemas/order-create.json"
)

// requestSchemas validate the shape of incoming payloads before they are
// decoded into typed structs. Unknown properties are rejected so that typos
// do not silently pass as partial updates.
var requestSchemas = []string{
	`{
	"$id": "` + schemaUserCreate + `",
	"type": "object",
	"properties": {
		"name": { "type": "string", "minLength": 1 },
		"address": { "type": "string", "minLength": 1 },
		"email": { "type": "string", "minLength": 1 }
	},
	"required": ["name", "address", "email"],
	"additionalProperties": false
}`,
	`{
	"$id": "` + schemaUserUpdate + `",
	"type": "object",
	"properties": {
		"name": { "type": "string", "minLength": 1 },
		"address": { "type": "string", "minLength": 1 },
		"email": { "type": "string", "minLength": 1 }
	},
	"additionalProperties": false
}`,
	`{
	"$id": "` + schemaProductCreate + `",
	"type": "object",
	"properties": {
		"product_name": { "type": "string", "minLength": 1 },
		"price": { "type": "number", "minimum": 0 }
	},
	"required": ["product_name", "price"],
	"additionalProperties": false
}`,
	`{
	"$id": "` + schemaProductUpdate + `",
	"type": "object",
	"properties": {
		"product_name": { "type": "string", "minLength": 1 },
		"price": { "type": "number", "minimum": 0 }
	},
	"additionalProperties": false
}`,
	`{
	"$id": "` + schemaOrderCreate + `",
	"type": "object",
	"properties": {
		"user_id": { "type": "integer" },
		"order_date": { "type": "string" }
	},
	"required": ["user_id"],
	"additionalProperties": false
}`,
}
