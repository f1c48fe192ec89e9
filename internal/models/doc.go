// Package models contains data structures for the application's domain models.
package models
