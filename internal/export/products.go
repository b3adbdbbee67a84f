package export

import (
	"encoding/json"
	"fmt"

	"shopmigrate/internal/migrate"
)

// ProductsJSON renders the extracted product records as an indented JSON
// array, the hand-off format for destination import tooling.
func ProductsJSON(products []migrate.ProductRecord) ([]byte, error) {
	if products == nil {
		products = []migrate.ProductRecord{}
	}
	out, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal products: %w", err)
	}
	return append(out, '\n'), nil
}
