// Package models defines the core domain models for SplitBill.
//
// # Models
//
//   - Card: a participant splitting the bill, or the synthetic "total"
//     aggregate card
//   - Transaction: one monetary line item, detected on the receipt image or
//     entered manually
//   - Share: one card's portion of one transaction's value
//   - Rect: the image-space bounding box a detected amount occupies
//
// # Design Principles
//
// 1. **Id references only**: cards and transactions reference each other by
// UUID, never by pointer. The registry exclusively owns both collections, so
// there are no ownership cycles.
//
// 2. **Forward-compatible serialization**: optional fields default on load
// instead of failing, so state written by older builds keeps decoding.
//
// 3. **Explicit unset amounts**: a share's value may not have been computed
// yet. ShareValue models that state explicitly instead of overloading zero.
package models
