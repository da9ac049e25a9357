package mongodb

import (
	"errors"
	"fmt"

	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps driver errors onto the repository sentinels and adds the operation name.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
