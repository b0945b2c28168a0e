package service

import (
	"deliveryops-backend/internal/domains/importer/model"

	"github.com/shopspring/decimal"
)

// RowGroup is the set of rows collapsing into one logical multi-item order.
type RowGroup struct {
	Key  string
	Rows []*model.ImportedOrderRow
}

// GroupRows merges rows sharing an order reference into multi-item groups.
// Single ordered pass; groups appear in first-seen order and a row belongs
// to exactly one group. Rows without a reference become singleton groups
// keyed by their own id.
func GroupRows(rows []*model.ImportedOrderRow) []RowGroup {
	byKey := make(map[string]int, len(rows))
	groups := make([]RowGroup, 0, len(rows))

	for _, row := range rows {
		key := row.GroupKey()
		if i, seen := byKey[key]; seen {
			groups[i].Rows = append(groups[i].Rows, row)
			continue
		}
		byKey[key] = len(groups)
		groups = append(groups, RowGroup{Key: key, Rows: []*model.ImportedOrderRow{row}})
	}

	return groups
}

// BuildOrderRequests turns groups into wire-level create requests. Customer
// fields come from the first row of each group; exports are assumed
// consistent within a group, so divergent later rows are ignored. Items are
// concatenated in row order.
func BuildOrderRequests(groups []RowGroup) []model.CreateOrderRequest {
	orders := make([]model.CreateOrderRequest, 0, len(groups))

	for _, g := range groups {
		head := g.Rows[0]

		req := model.CreateOrderRequest{
			CustomerName:    head.CustomerName,
			CustomerMobile:  head.CustomerMobile,
			CustomerAddress: head.CustomerAddress,
			GovernorateID:   head.GovernorateID,
			CityID:          head.CityID,
			PaymentMethod:   head.PaymentMethod,
			Items:           make([]model.OrderItem, 0, len(g.Rows)),
		}
		if head.VendorNotes != "" {
			notes := head.VendorNotes
			req.VendorNotes = &notes
		}

		for _, row := range g.Rows {
			item := model.OrderItem{
				ProductName: row.ProductName,
				UnitPrice:   decimal.Zero,
			}
			if row.Quantity != nil {
				item.Quantity = *row.Quantity
			}
			if row.UnitPrice != nil {
				item.UnitPrice = *row.UnitPrice
			}
			req.Items = append(req.Items, item)
		}

		orders = append(orders, req)
	}

	return orders
}
