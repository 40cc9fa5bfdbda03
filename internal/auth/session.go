package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrUnauthenticated is returned for any ticket that cannot be resolved to
// an active account: missing, malformed, expired, badly signed, or pointing
// at a user that no longer exists.
var ErrUnauthenticated = errors.New("unauthenticated")

// UserResolver is the slice of the storage collaborator the authenticator
// needs.
type UserResolver interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticator validates session tickets presented at channel-open time.
type Authenticator struct {
	secret []byte
	users  UserResolver
	logger *zap.Logger
}

func NewAuthenticator(secret string, users UserResolver, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		users:  users,
		logger: logger,
	}
}

// Authenticate resolves a session ticket to a user identity. It runs exactly
// once per channel, before any registry mutation; any failure maps to
// ErrUnauthenticated so callers can refuse the channel uniformly.
func (a *Authenticator) Authenticate(ctx context.Context, ticket string) (*model.User, error) {
	if ticket == "" {
		return nil, ErrUnauthenticated
	}

	token, err := jwt.Parse(ticket, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		a.logger.Debug("session ticket rejected", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	userID, err := token.Claims.GetSubject()
	if err != nil || userID == "" {
		return nil, ErrUnauthenticated
	}

	user, err := a.users.FindUserByID(ctx, userID)
	if err != nil {
		a.logger.Warn("user lookup failed during authentication",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, ErrUnauthenticated
	}
	if user == nil || !user.IsActive {
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// TicketFromRequest extracts the session ticket from a channel-open request:
// the "token" query parameter or an Authorization bearer header.
func TicketFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
