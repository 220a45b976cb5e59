// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives validated
// data from the handler, turns missing rows into not-found errors, calls
// repository methods and announces committed changes.
package service

import (
	"github.com/deppfellow/testtable-service/internal/repository"
	"github.com/deppfellow/testtable-service/internal/server"
)

type Services struct {
	TestTable *TestTableService
}

// NewServices wires the services. Change notifications go through the job
// queue when the server has one.
func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier Notifier = NoopNotifier{}
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		TestTable: NewTestTableService(repos.TestTable, notifier, s.Logger),
	}, nil
}
