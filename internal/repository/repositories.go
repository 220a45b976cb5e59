// Package repository holds the SQL behind each resource.
package repository

import (
	"github.com/deppfellow/testtable-service/internal/server"
)

// Repositories groups every repository built on the shared pool.
type Repositories struct {
	TestTable *TestTableRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		TestTable: NewTestTableRepository(s.DB.Pool),
	}
}
