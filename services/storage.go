package services

import (
	"errors"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
)

type notFoundResult struct{}

// guard runs a document-store operation through the circuit breaker. A
// missing document is a domain outcome, not a storage failure, so
// mongo.ErrNoDocuments must not count toward the breaker's failure totals;
// it is smuggled through as a result and restored on the way out.
func guard(cb *gobreaker.CircuitBreaker, op func() (interface{}, error)) (interface{}, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		v, err := op()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFoundResult{}, nil
		}
		return v, err
	})
	if err != nil {
		return nil, err
	}
	if _, ok := res.(notFoundResult); ok {
		return nil, mongo.ErrNoDocuments
	}
	return res, nil
}
