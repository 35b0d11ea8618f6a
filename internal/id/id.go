// Package id generates and validates identifiers.
//
// Documents are keyed by 24-character hex ObjectIDs so ids keep the shape the
// web client already understands; file names use NanoIDs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// New returns a fresh ObjectID in hex form.
func New() string {
	return primitive.NewObjectID().Hex()
}

// Valid reports whether s is a well-formed ObjectID.
func Valid(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// FileName returns a URL-safe random name carrying ext (e.g. ".png").
func FileName(ext string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return n + ext, nil
}
