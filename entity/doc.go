// Package entity holds the podcast and item records shared by the store,
// the download engine and the delivery surfaces.
package entity
