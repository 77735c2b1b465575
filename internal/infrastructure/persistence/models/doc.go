// Package models contains the gorm persistence models for the catalog and
// bid ledger tables. Domain entities carry no ORM tags; repositories convert
// through ToDomain / FromDomain.
//
//   - base.go: BaseModel (uuid id and domain-stamped timestamps)
//   - catalog_item.go: catalog_items
//   - bidding.go: bidders and bids
package models
