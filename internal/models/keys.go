package models

import "fmt"

// DefaultDocumentKey is used when there is no user context.
const DefaultDocumentKey = "supplySyncData"

func UserDocumentKey(userID uint) string {
	if userID == 0 {
		return DefaultDocumentKey
	}
	return fmt.Sprintf("%s_%d", DefaultDocumentKey, userID)
}
