// Package store persists named diagrams: the record table, display
// settings, and the user's adjusted positions. The memory backend
// serves tests and single-process use, the Mongo backend serves the
// server deployment.
package store

import (
	"context"
	"time"

	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Diagram is one saved document.
type Diagram struct {
	ID        string                `json:"id" bson:"_id"`
	Name      string                `json:"name" bson:"name"`
	Records   []scene.Record        `json:"records" bson:"records"`
	Settings  engine.Settings       `json:"settings" bson:"settings"`
	Positions map[string]geom.Point `json:"positions,omitempty" bson:"positions,omitempty"`
	CreatedAt time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time             `json:"updated_at" bson:"updated_at"`
}

func nowUTC() time.Time { return time.Now().UTC() }

// Store is the persistence interface.
type Store interface {
	// Save inserts or replaces a diagram by ID.
	Save(ctx context.Context, d *Diagram) error

	// Load retrieves a diagram by ID.
	Load(ctx context.Context, id string) (*Diagram, error)

	// List returns all diagrams, newest first, without positions.
	List(ctx context.Context) ([]*Diagram, error)

	// Delete removes a diagram by ID.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
