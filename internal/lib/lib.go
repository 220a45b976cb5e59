// Package lib groups supporting modules that do not fit strictly into the
// repository, service or handler layers.
//
// It currently contains background job processing (Redis/Asynq) used to
// deliver TestTable change notifications.
package lib
