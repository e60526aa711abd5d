package services

import "github.com/google/uuid"

// validID rejects ids that could never match a row, before they reach the
// uuid columns.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
