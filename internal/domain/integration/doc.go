// Package integration contains the order reconciliation bounded context.
// It translates storefront orders into remote ERP sales orders.
//
// Key concepts:
//   - OrderPayload: storefront order received from the caller, read only
//   - SalesOrder: remote sales order being assembled by a reconciliation pass
//   - CustomFieldMap: configuration mapping custom body fields onto remote custom fields
//   - FieldRegistry: typed setters for best effort extra field passthrough
//   - Gateway: per-entity ports onto the remote record store
//   - SyncRecord: local ledger of reconciliation outcomes
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
