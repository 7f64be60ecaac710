// Package mocks holds gomock doubles for the domain ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockArticleRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), "id").Return(article, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=article_repository_mock.go articlegen/internal/domain ArticleRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=generator_mock.go articlegen/internal/domain Generator
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reconcile_gate_mock.go articlegen/internal/domain ReconcileGate
