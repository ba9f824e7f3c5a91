// Package mocks provides mock implementations of the citewatch core ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	mockRepo := mocks.NewMockEvidenceRepository(ctrl)
//	mockRepo.EXPECT().ListPage(gomock.Any(), gomock.Any()).Return(records, nil)
package mocks

// ListPage, Upsert
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=evidence_repository_mock.go github.com/onco-dash/citewatch/internal/core EvidenceRepository

// GetByHash, Upsert, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=freshness_status_repository_mock.go github.com/onco-dash/citewatch/internal/core FreshnessStatusRepository

// Start, Complete, LastCursor, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=freshness_run_repository_mock.go github.com/onco-dash/citewatch/internal/core FreshnessRunRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=prober_mock.go github.com/onco-dash/citewatch/internal/core Prober

// SetIfNotExists, DeleteIfValue, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=lock_repository_mock.go github.com/onco-dash/citewatch/internal/core LockRepository
