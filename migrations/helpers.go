package migrations

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// isIndexExistsError reports errors caused by an equivalent index already existing
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return mongo.IsDuplicateKeyError(err) ||
		strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "IndexKeySpecsConflict") ||
		strings.Contains(errStr, "IndexOptionsConflict")
}

// isNamespaceExistsError reports a CreateCollection on an existing collection
func isNamespaceExistsError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Name == "NamespaceExists" || cmdErr.Code == 48
	}
	return err != nil && strings.Contains(err.Error(), "already exists")
}
