// Package accounts implements user accounts: registration, credential login,
// JWT access/refresh sessions with rotation and a revocation blacklist,
// profile management, password changes, an append-only activity trail and an
// admin directory.
//
// Storage goes through bun repositories (see NewRepositoryManager) and every
// multi-step write runs inside RepositoryManager.RunInTx, so the user change
// and its activity row commit together.
//
// Wiring:
//
//	client, _ := accounts.NewPersistence(ctx, cfg.Persistence())
//	_ = client.Migrate(ctx)
//	repo := accounts.NewRepositoryManager(client.DB())
//	hasher := accounts.NewBcryptHasher(0)
//	provider := accounts.NewUserProvider(repo.Users(), hasher)
//	tokens, _ := accounts.NewTokenService(key, repo.TokenBlacklist(),
//		accounts.WithIdentityResolver(provider))
//	svc, _ := accounts.NewService(repo, tokens, accounts.WithPasswordHasher(hasher))
//	dir := accounts.NewDirectory(repo.Users(), nil, nil)
//	accounts.RegisterAccountRoutes(app, accounts.NewAuthController(svc, dir))
//
// Errors carry go-errors text codes (TextCodeInvalidCreds,
// TextCodeValidation, ...) that the HTTP layer maps onto status codes.
package accounts
