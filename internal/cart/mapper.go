package cart

import "storefront-be/internal/pricing"

// ToLines maps stored items to calculator input, priced at their snapshot.
func ToLines(rows []ItemRow) []pricing.Line {
	lines := make([]pricing.Line, 0, len(rows))

	for _, r := range rows {
		lines = append(lines, pricing.Line{
			ItemID:      r.ID,
			VariantID:   r.VariantID,
			VariantName: r.VariantName,
			ProductName: r.ProductName,
			ImageURL:    r.ImageURL,
			UnitPrice:   r.PriceSnapshot,
			Quantity:    r.Quantity,
		})
	}

	return lines
}
