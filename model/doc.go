// Package model defines the entities stored by vectordb: libraries,
// documents and chunks, plus the typed identifiers shared across packages.
package model
