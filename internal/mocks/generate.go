// Package mocks provides mock implementations of the ports used by the auth and promo services.
//
// This package uses go.uber.org/mock (gomock) for type-safe mocks of repository and backend interfaces.
// The checked-in mocks follow mockgen output; regenerate them after interface changes:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	claims := mocks.NewMockClaimRepository(ctrl)
//	claims.EXPECT().Claim(gomock.Any(), "user-1", 3).Return(nil)
package mocks

// Generate mock for ClaimRepository interface from internal/ports package.
// Methods: Claim, ClaimedPromoIDs
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=claim_repository_mock.go github.com/bengkelink/bengkelink-web/internal/ports ClaimRepository

// Generate mock for ProfileRepository interface from internal/ports package.
// Methods: QueryProfile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_repository_mock.go github.com/bengkelink/bengkelink-web/internal/ports ProfileRepository

// Generate mock for IdentityBackend interface from internal/ports package.
// Methods: PasswordGrant, RefreshGrant, SignUp, SignOut
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_backend_mock.go github.com/bengkelink/bengkelink-web/internal/ports IdentityBackend

// Generate mock for FileStorage interface from internal/ports package.
// Methods: Upload, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=file_storage_mock.go github.com/bengkelink/bengkelink-web/internal/ports FileStorage
