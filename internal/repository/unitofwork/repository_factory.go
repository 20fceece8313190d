package unitofwork

import "context"

// RepositoryFactory hands out a fresh UnitOfWork per request or worker job.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
