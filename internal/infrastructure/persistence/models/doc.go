// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - identity.go: users and authentication tokens
// - account.go: people, companies, addresses and phones
// - access.go: applications and accesses
package models
