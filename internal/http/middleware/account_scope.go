package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/auth"
	"go.uber.org/zap"
)

// AccountScopeMiddleware restricts every query of a request to the caller's account.
// Plans, executions, ledger entries and stock movements of other accounts are
// invisible past this point.
type AccountScopeMiddleware struct {
	logger *zap.Logger
}

// NewAccountScopeMiddleware creates a new account scope middleware
func NewAccountScopeMiddleware(logger *zap.Logger) *AccountScopeMiddleware {
	return &AccountScopeMiddleware{
		logger: logger,
	}
}

// Scope sets the effective account scope in context.
// Requests without an authenticated account are rejected; an unscoped request
// would otherwise see every account's data.
func (m *AccountScopeMiddleware) Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		if !ok || userCtx == nil {
			http.Error(w, "Unauthorized: no user context", http.StatusUnauthorized)
			return
		}

		if userCtx.AccountID == uuid.Nil {
			m.logger.Warn("authenticated request without account",
				zap.String("user_id", userCtx.UserID.String()),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, "Forbidden: no account assigned", http.StatusForbidden)
			return
		}

		annotateRequest(r.Context(), userCtx)

		ctx := auth.WithAccountScope(r.Context(), &auth.AccountScope{AccountID: userCtx.AccountID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
